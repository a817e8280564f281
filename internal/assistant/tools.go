package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sales-assistant/internal/domain"
	"github.com/spec-kit/sales-assistant/internal/service"
	"github.com/spec-kit/sales-assistant/pkg/util/timeutil"
)

// Tool names exposed to the model.
const (
	ToolGetCustomers       = "get_customers"
	ToolSearchCustomers    = "search_customers"
	ToolGetUrgentFollowUps = "get_urgent_follow_ups"
	ToolGetCustomerDetails = "get_customer_details"
	ToolAddCustomer        = "add_customer"
	ToolAddToKnowledgeBase = "add_to_knowledge_base"
	ToolQueryKnowledgeBase = "query_knowledge_base"
)

// CustomerStore is the customer access the tools need.
type CustomerStore interface {
	Create(ctx context.Context, userID string, input service.CustomerInput, source string) (*domain.Customer, error)
	Get(ctx context.Context, userID, id string) (*domain.Customer, error)
	List(ctx context.Context, userID string, query service.CustomerQuery) ([]domain.Customer, error)
	DueForFollowUp(ctx context.Context, userID string, limit int) ([]domain.Customer, error)
}

// KnowledgeStore is the knowledge base access the tools need.
type KnowledgeStore interface {
	Add(ctx context.Context, userID string, input service.KnowledgeInput) (*domain.KnowledgeFact, error)
	Search(ctx context.Context, userID, query string, limit int) ([]domain.KnowledgeFact, error)
}

// CustomerView is the customer payload handed to the model.
type CustomerView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Company         string     `json:"company"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
	Tags            []string   `json:"tags"`
	LastInteraction *time.Time `json:"last_interaction"`
	NextFollowUp    *time.Time `json:"next_follow_up"`
}

// NewCustomerView projects a stored customer.
func NewCustomerView(c domain.Customer) CustomerView {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return CustomerView{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Company:         c.Company,
		Status:          string(c.Status),
		Notes:           c.Notes,
		Tags:            tags,
		LastInteraction: c.LastInteraction,
		NextFollowUp:    c.NextFollowUp,
	}
}

func customerViews(customers []domain.Customer) []CustomerView {
	views := make([]CustomerView, 0, len(customers))
	for _, c := range customers {
		views = append(views, NewCustomerView(c))
	}
	return views
}

// FactView is the knowledge payload handed to the model.
type FactView struct {
	ID             string    `json:"id"`
	EntityName     string    `json:"entity_name"`
	Relation       string    `json:"relation"`
	TargetEntity   string    `json:"target_entity"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type funcTool struct {
	spec ToolSpec
	run  func(ctx context.Context, caller Caller, args json.RawMessage) (any, error)
}

func (t funcTool) Spec() ToolSpec { return t.spec }

func (t funcTool) Execute(ctx context.Context, caller Caller, args json.RawMessage) (any, error) {
	return t.run(ctx, caller, args)
}

// NewSalesTools returns the fixed tool set bound to the given stores. listLimit caps
// every list the tools return.
func NewSalesTools(customers CustomerStore, knowledge KnowledgeStore, listLimit int) []Tool {
	if listLimit <= 0 {
		listLimit = 50
	}
	return []Tool{
		getCustomersTool(customers, listLimit),
		searchCustomersTool(customers, listLimit),
		urgentFollowUpsTool(customers, listLimit),
		customerDetailsTool(customers),
		addCustomerTool(customers),
		addKnowledgeTool(knowledge),
		queryKnowledgeTool(knowledge, listLimit),
	}
}

func getCustomersTool(customers CustomerStore, listLimit int) Tool {
	return funcTool{
		spec: ToolSpec{
			Name:        ToolGetCustomers,
			Description: "List the user's customers ordered by name.",
			Parameters: objectSchema(map[string]any{
				"limit": map[string]any{"type": "integer", "minimum": 1, "maximum": listLimit, "description": "Maximum number of customers to return."},
			}),
		},
		run: func(ctx context.Context, caller Caller, raw json.RawMessage) (any, error) {
			var args struct {
				Limit int `json:"limit"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if args.Limit < 0 {
				return nil, invalidParam("limit must be positive")
			}
			found, err := customers.List(ctx, caller.UserID, service.CustomerQuery{Limit: args.Limit})
			if err != nil {
				return nil, err
			}
			return customerViews(found), nil
		},
	}
}

func searchCustomersTool(customers CustomerStore, listLimit int) Tool {
	return funcTool{
		spec: ToolSpec{
			Name:        ToolSearchCustomers,
			Description: "Search the user's customers by name, company, email or notes.",
			Parameters: objectSchema(map[string]any{
				"query": map[string]any{"type": "string", "description": "Text to look for."},
			}, "query"),
		},
		run: func(ctx context.Context, caller Caller, raw json.RawMessage) (any, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if strings.TrimSpace(args.Query) == "" {
				return nil, invalidParam("query is required")
			}
			found, err := customers.List(ctx, caller.UserID, service.CustomerQuery{Search: args.Query, Limit: listLimit})
			if err != nil {
				return nil, err
			}
			return customerViews(found), nil
		},
	}
}

func urgentFollowUpsTool(customers CustomerStore, listLimit int) Tool {
	return funcTool{
		spec: ToolSpec{
			Name:        ToolGetUrgentFollowUps,
			Description: "List customers whose follow-up date is overdue or coming up soon, soonest first.",
			Parameters:  objectSchema(map[string]any{}),
		},
		run: func(ctx context.Context, caller Caller, raw json.RawMessage) (any, error) {
			if err := decodeArgs(raw, &struct{}{}); err != nil {
				return nil, err
			}
			found, err := customers.DueForFollowUp(ctx, caller.UserID, listLimit)
			if err != nil {
				return nil, err
			}
			return customerViews(found), nil
		},
	}
}

func customerDetailsTool(customers CustomerStore) Tool {
	return funcTool{
		spec: ToolSpec{
			Name:        ToolGetCustomerDetails,
			Description: "Get every stored field of one customer.",
			Parameters: objectSchema(map[string]any{
				"customer_id": map[string]any{"type": "string", "format": "uuid", "description": "The customer id."},
			}, "customer_id"),
		},
		run: func(ctx context.Context, caller Caller, raw json.RawMessage) (any, error) {
			var args struct {
				CustomerID string `json:"customer_id"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			id := strings.TrimSpace(args.CustomerID)
			if _, err := uuid.Parse(id); err != nil {
				return nil, invalidParam("customer_id must be a uuid")
			}
			customer, err := customers.Get(ctx, caller.UserID, id)
			if err != nil {
				return nil, err
			}
			return NewCustomerView(*customer), nil
		},
	}
}

func addCustomerTool(customers CustomerStore) Tool {
	return funcTool{
		spec: ToolSpec{
			Name:        ToolAddCustomer,
			Description: "Create a new customer record for the user.",
			Parameters: objectSchema(map[string]any{
				"name":           map[string]any{"type": "string"},
				"email":          map[string]any{"type": "string", "format": "email"},
				"company":        map[string]any{"type": "string"},
				"status":         map[string]any{"type": "string", "enum": []string{"lead", "active", "churned"}},
				"notes":          map[string]any{"type": "string"},
				"next_follow_up": map[string]any{"type": "string", "description": "Date (YYYY-MM-DD) or RFC 3339 timestamp."},
			}, "name", "email"),
		},
		run: func(ctx context.Context, caller Caller, raw json.RawMessage) (any, error) {
			var args struct {
				Name         string `json:"name"`
				Email        string `json:"email"`
				Company      string `json:"company"`
				Status       string `json:"status"`
				Notes        string `json:"notes"`
				NextFollowUp string `json:"next_follow_up"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			input := service.CustomerInput{
				Name:    args.Name,
				Email:   args.Email,
				Company: args.Company,
				Status:  domain.CustomerStatus(strings.ToLower(strings.TrimSpace(args.Status))),
				Notes:   args.Notes,
			}
			if strings.TrimSpace(args.NextFollowUp) != "" {
				when, err := timeutil.ParseDate(args.NextFollowUp)
				if err != nil {
					return nil, invalidParam("next_follow_up must be YYYY-MM-DD or RFC 3339")
				}
				input.NextFollowUp = &when
			}
			customer, err := customers.Create(ctx, caller.UserID, input, service.SourceAssistant)
			if err != nil {
				return nil, err
			}
			return NewCustomerView(*customer), nil
		},
	}
}

func addKnowledgeTool(knowledge KnowledgeStore) Tool {
	return funcTool{
		spec: ToolSpec{
			Name:        ToolAddToKnowledgeBase,
			Description: "Record a fact as entity --relation--> target, e.g. Acme --uses--> Salesforce.",
			Parameters: objectSchema(map[string]any{
				"entity_name":     map[string]any{"type": "string"},
				"relation":        map[string]any{"type": "string"},
				"target_entity":   map[string]any{"type": "string"},
				"additional_info": map[string]any{"type": "string"},
			}, "entity_name", "relation", "target_entity"),
		},
		run: func(ctx context.Context, caller Caller, raw json.RawMessage) (any, error) {
			var args struct {
				EntityName     string `json:"entity_name"`
				Relation       string `json:"relation"`
				TargetEntity   string `json:"target_entity"`
				AdditionalInfo string `json:"additional_info"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			fact, err := knowledge.Add(ctx, caller.UserID, service.KnowledgeInput{
				EntityName:     args.EntityName,
				Relation:       args.Relation,
				TargetEntity:   args.TargetEntity,
				AdditionalInfo: args.AdditionalInfo,
			})
			if err != nil {
				return nil, err
			}
			return newFactView(*fact), nil
		},
	}
}

func queryKnowledgeTool(knowledge KnowledgeStore, listLimit int) Tool {
	return funcTool{
		spec: ToolSpec{
			Name:        ToolQueryKnowledgeBase,
			Description: "Search recorded facts by entity, relation, target or notes.",
			Parameters: objectSchema(map[string]any{
				"query": map[string]any{"type": "string"},
			}, "query"),
		},
		run: func(ctx context.Context, caller Caller, raw json.RawMessage) (any, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if strings.TrimSpace(args.Query) == "" {
				return nil, invalidParam("query is required")
			}
			facts, err := knowledge.Search(ctx, caller.UserID, args.Query, listLimit)
			if err != nil {
				return nil, err
			}
			views := make([]FactView, 0, len(facts))
			for _, f := range facts {
				views = append(views, newFactView(f))
			}
			return views, nil
		},
	}
}

func newFactView(f domain.KnowledgeFact) FactView {
	return FactView{
		ID:             f.ID,
		EntityName:     f.EntityName,
		Relation:       f.Relation,
		TargetEntity:   f.TargetEntity,
		AdditionalInfo: f.AdditionalInfo,
		CreatedAt:      f.CreatedAt,
	}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func decodeArgs(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return invalidParam("arguments are not a valid JSON object: %v", err)
	}
	return nil
}
