package domain

import "time"

// CustomerStatus tracks where a customer sits in the sales pipeline.
type CustomerStatus string

const (
	CustomerStatusLead    CustomerStatus = "lead"
	CustomerStatusActive  CustomerStatus = "active"
	CustomerStatusChurned CustomerStatus = "churned"
)

// Valid reports whether s is a known pipeline status.
func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerStatusLead, CustomerStatusActive, CustomerStatusChurned:
		return true
	}
	return false
}

// Customer is a record owned by a single user.
type Customer struct {
	ID              string
	UserID          string
	Name            string
	Email           string
	Company         string
	Status          CustomerStatus
	Notes           string
	Tags            []string
	LastInteraction *time.Time
	NextFollowUp    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
