package catalog

import (
	"context"
	"errors"
	"fmt"
)

// DefaultTools returns the built-in tool templates for a fresh deployment.
// These cover the baseline real-estate CRM surface; deployments add their
// own tools through the admin API.
func DefaultTools() []*Tool {
	return []*Tool{
		{
			Name:         "list_clients",
			DisplayName:  "List Clients",
			Description:  "List clients in the CRM, optionally filtered by stage or assigned agent.",
			Category:     string(CategoryCRM),
			IsEnabled:    true,
			EndpointType: EndpointAPIRoute,
			EndpointPath: "/api/clients",
			HTTPMethod:   "GET",
			Parameters: objectSchema(map[string]interface{}{
				"stage": map[string]interface{}{
					"type":        "string",
					"description": "Pipeline stage to filter by (lead, active, under_contract, closed)",
				},
				"assigned_to": map[string]interface{}{
					"type":        "string",
					"description": "Agent ID to filter by",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of clients to return",
					"default":     25,
				},
			}, nil),
			RequiredScopes: []string{"crm:read"},
		},
		{
			Name:         "create_contact",
			DisplayName:  "Create Contact",
			Description:  "Create a new contact record in the CRM.",
			Category:     string(CategoryCRM),
			IsEnabled:    true,
			EndpointType: EndpointAPIRoute,
			EndpointPath: "/api/contacts",
			HTTPMethod:   "POST",
			Parameters: objectSchema(map[string]interface{}{
				"first_name": map[string]interface{}{
					"type":        "string",
					"description": "Contact first name",
				},
				"last_name": map[string]interface{}{
					"type":        "string",
					"description": "Contact last name",
				},
				"email": map[string]interface{}{
					"type":        "string",
					"description": "Contact email address",
				},
				"phone": map[string]interface{}{
					"type":        "string",
					"description": "Contact phone number",
				},
			}, []string{"first_name", "last_name"}),
			RequiredScopes: []string{"crm:write"},
		},
		{
			Name:         "search_listings",
			DisplayName:  "Search Listings",
			Description:  "Search MLS listings by location, price range, and property attributes.",
			Category:     string(CategoryMLS),
			IsEnabled:    true,
			EndpointType: EndpointAPIRoute,
			EndpointPath: "/api/mls/search",
			HTTPMethod:   "GET",
			Parameters: objectSchema(map[string]interface{}{
				"location": map[string]interface{}{
					"type":        "string",
					"description": "City, ZIP code, or neighborhood",
				},
				"min_price": map[string]interface{}{
					"type":        "number",
					"description": "Minimum list price",
				},
				"max_price": map[string]interface{}{
					"type":        "number",
					"description": "Maximum list price",
				},
				"beds": map[string]interface{}{
					"type":        "integer",
					"description": "Minimum number of bedrooms",
				},
				"baths": map[string]interface{}{
					"type":        "integer",
					"description": "Minimum number of bathrooms",
				},
			}, []string{"location"}),
			RequiredScopes: []string{"mls:read"},
		},
		{
			Name:         "schedule_showing",
			DisplayName:  "Schedule Showing",
			Description:  "Schedule a property showing on the agent calendar.",
			Category:     string(CategoryCalendar),
			IsEnabled:    true,
			EndpointType: EndpointAPIRoute,
			EndpointPath: "/api/calendar/showings",
			HTTPMethod:   "POST",
			Parameters: objectSchema(map[string]interface{}{
				"listing_id": map[string]interface{}{
					"type":        "string",
					"description": "MLS listing identifier",
				},
				"client_id": map[string]interface{}{
					"type":        "string",
					"description": "Client attending the showing",
				},
				"start_time": map[string]interface{}{
					"type":        "string",
					"description": "Showing start time (RFC 3339)",
				},
			}, []string{"listing_id", "start_time"}),
			RequiredScopes: []string{"calendar:write"},
		},
		{
			Name:         "list_documents",
			DisplayName:  "List Documents",
			Description:  "List transaction documents for a client or listing.",
			Category:     string(CategoryDocuments),
			IsEnabled:    true,
			EndpointType: EndpointAPIRoute,
			EndpointPath: "/api/documents",
			HTTPMethod:   "GET",
			Parameters: objectSchema(map[string]interface{}{
				"client_id": map[string]interface{}{
					"type":        "string",
					"description": "Client to list documents for",
				},
				"listing_id": map[string]interface{}{
					"type":        "string",
					"description": "Listing to list documents for",
				},
			}, nil),
			RequiredScopes: []string{"documents:read"},
		},
		{
			Name:         "calculate_mortgage",
			DisplayName:  "Calculate Mortgage",
			Description:  "Estimate a monthly mortgage payment from price, rate, and term.",
			Category:     string(CategoryUtility),
			IsEnabled:    true,
			EndpointType: EndpointInternalAction,
			Parameters: objectSchema(map[string]interface{}{
				"price": map[string]interface{}{
					"type":        "number",
					"description": "Purchase price",
				},
				"down_payment": map[string]interface{}{
					"type":        "number",
					"description": "Down payment amount",
					"default":     0,
				},
				"rate": map[string]interface{}{
					"type":        "number",
					"description": "Annual interest rate as a percentage",
				},
				"term_years": map[string]interface{}{
					"type":        "integer",
					"description": "Loan term in years",
					"default":     30,
				},
			}, []string{"price", "rate"}),
		},
		{
			Name:         "get_current_time",
			DisplayName:  "Get Current Time",
			Description:  "Return the current server time.",
			Category:     string(CategoryUtility),
			IsEnabled:    true,
			EndpointType: EndpointInternalAction,
			Parameters:   objectSchema(map[string]interface{}{}, nil),
		},
	}
}

// SeedDefaults installs the default templates, skipping tools that already
// exist. Returns the number of tools inserted.
func SeedDefaults(ctx context.Context, store Store) (int, error) {
	inserted := 0
	for _, tool := range DefaultTools() {
		_, err := store.FindByName(ctx, tool.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return inserted, fmt.Errorf("failed to check existing tool %s: %w", tool.Name, err)
		}
		if err := store.Create(ctx, tool); err != nil {
			return inserted, fmt.Errorf("failed to seed tool %s: %w", tool.Name, err)
		}
		inserted++
	}
	return inserted, nil
}

func objectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
