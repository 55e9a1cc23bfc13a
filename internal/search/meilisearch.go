package search

import (
	"fmt"

	"github.com/meilisearch/meilisearch-go"
)

// ListingDocument is the flattened listing record stored in the search index
type ListingDocument struct {
	ID           uint     `json:"id"`
	MLSNumber    string   `json:"mls_number"`
	UnitNumber   string   `json:"unit_number,omitempty"`
	BuildingName string   `json:"building_name,omitempty"`
	Address      string   `json:"address,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Status       string   `json:"status"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	SquareFeet   *int     `json:"square_feet,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	CurrentPrice *float64 `json:"current_price,omitempty"`
	ListingDate  string   `json:"listing_date,omitempty"`
	IsActive     bool     `json:"is_active"`
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "listings",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	// Configure searchable attributes
	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"mls_number",
		"building_name",
		"address",
		"neighborhood",
		"unit_number",
	})
	if err != nil {
		return err
	}

	// Configure filterable attributes
	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"status",
		"is_active",
		"neighborhood",
		"bedrooms",
		"property_type",
		"current_price",
	})
	if err != nil {
		return err
	}

	// Configure sortable attributes
	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"current_price",
		"square_feet",
		"listing_date",
	})
	if err != nil {
		return err
	}

	return nil
}

// IndexListing indexes a single listing document
func (s *SearchClient) IndexListing(doc *ListingDocument) error {
	_, err := s.client.Index(s.index).AddDocuments([]ListingDocument{*doc})
	return err
}

// IndexListings indexes multiple listing documents
func (s *SearchClient) IndexListings(docs []ListingDocument) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// DeleteListing removes a listing document from the index
func (s *SearchClient) DeleteListing(id uint) error {
	_, err := s.client.Index(s.index).DeleteDocument(fmt.Sprintf("%d", id))
	return err
}

// SearchRequest represents search parameters
type SearchRequest struct {
	Query  string
	Limit  int64
	Offset int64
	Filter []string
	Sort   []string
}

// SearchResult represents search results
type SearchResult struct {
	Hits           []ListingDocument
	TotalHits      int64
	ProcessingTime int64
}

// Search searches for listings with basic options
func (s *SearchClient) Search(query string, limit int64) ([]ListingDocument, error) {
	result, err := s.AdvancedSearch(SearchRequest{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

// AdvancedSearch performs search with filters and sorting
func (s *SearchClient) AdvancedSearch(req SearchRequest) (*SearchResult, error) {
	if req.Limit == 0 {
		req.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	if len(req.Filter) > 0 {
		filterStr := ""
		for i, f := range req.Filter {
			if i > 0 {
				filterStr += " AND "
			}
			filterStr += f
		}
		searchReq.Filter = filterStr
	}

	if len(req.Sort) > 0 {
		searchReq.Sort = req.Sort
	}

	searchRes, err := s.client.Index(s.index).Search(req.Query, searchReq)
	if err != nil {
		return nil, err
	}

	docs := make([]ListingDocument, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		docs = append(docs, parseListingFromHit(hit))
	}

	return &SearchResult{
		Hits:           docs,
		TotalHits:      searchRes.EstimatedTotalHits,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// parseListingFromHit converts a search hit to a ListingDocument
func parseListingFromHit(hit interface{}) ListingDocument {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return ListingDocument{}
	}

	doc := ListingDocument{
		MLSNumber:    getString(hitMap, "mls_number"),
		UnitNumber:   getString(hitMap, "unit_number"),
		BuildingName: getString(hitMap, "building_name"),
		Address:      getString(hitMap, "address"),
		Neighborhood: getString(hitMap, "neighborhood"),
		Status:       getString(hitMap, "status"),
		PropertyType: getString(hitMap, "property_type"),
		ListingDate:  getString(hitMap, "listing_date"),
	}

	if id, ok := hitMap["id"].(float64); ok {
		doc.ID = uint(id)
	}
	if active, ok := hitMap["is_active"].(bool); ok {
		doc.IsActive = active
	}
	if bedrooms, ok := hitMap["bedrooms"].(float64); ok {
		bedroomsInt := int(bedrooms)
		doc.Bedrooms = &bedroomsInt
	}
	if bathrooms, ok := hitMap["bathrooms"].(float64); ok {
		doc.Bathrooms = &bathrooms
	}
	if sqft, ok := hitMap["square_feet"].(float64); ok {
		sqftInt := int(sqft)
		doc.SquareFeet = &sqftInt
	}
	if price, ok := hitMap["current_price"].(float64); ok {
		doc.CurrentPrice = &price
	}

	return doc
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
