package dto

import (
	"time"

	"github.com/spec-kit/sales-assistant/internal/domain"
)

// CustomerRequest is the create and update payload. Dates are RFC 3339 or YYYY-MM-DD.
type CustomerRequest struct {
	Name            string                `json:"name"`
	Email           string                `json:"email"`
	Company         string                `json:"company"`
	Status          domain.CustomerStatus `json:"status"`
	Notes           string                `json:"notes"`
	Tags            []string              `json:"tags"`
	LastInteraction *string               `json:"last_interaction"`
	NextFollowUp    *string               `json:"next_follow_up"`
}

// CustomerResponse is the API view of a customer.
type CustomerResponse struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Email           string                `json:"email"`
	Company         string                `json:"company"`
	Status          domain.CustomerStatus `json:"status"`
	Notes           string                `json:"notes"`
	Tags            []string              `json:"tags"`
	LastInteraction *time.Time            `json:"last_interaction"`
	NextFollowUp    *time.Time            `json:"next_follow_up"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewCustomerResponse maps a domain customer.
func NewCustomerResponse(c *domain.Customer) CustomerResponse {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return CustomerResponse{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Company:         c.Company,
		Status:          c.Status,
		Notes:           c.Notes,
		Tags:            tags,
		LastInteraction: c.LastInteraction,
		NextFollowUp:    c.NextFollowUp,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// NewCustomerList maps a page of customers; it is never nil.
func NewCustomerList(customers []domain.Customer) []CustomerResponse {
	items := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, NewCustomerResponse(&customers[i]))
	}
	return items
}
