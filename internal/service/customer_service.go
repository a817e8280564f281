package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sales-assistant/internal/domain"
	"github.com/spec-kit/sales-assistant/internal/events"
	"github.com/spec-kit/sales-assistant/internal/repository"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// Customer creation sources recorded on events.
const (
	SourceAPI       = "api"
	SourceAssistant = "assistant"
)

// CustomerService owns customer validation and owner scoping.
type CustomerService struct {
	customers  repository.CustomerRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	horizon    time.Duration
	listLimit  int
	now        func() time.Time
}

// CustomerDependencies bundles collaborators for the customer service.
type CustomerDependencies struct {
	CustomerRepo    repository.CustomerRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	FollowUpHorizon time.Duration
	ListLimit       int
	Now             func() time.Time
}

// CustomerInput describes a create or full update of a customer.
type CustomerInput struct {
	Name            string                `validate:"required,max=200"`
	Email           string                `validate:"required,email,max=320"`
	Company         string                `validate:"max=200"`
	Status          domain.CustomerStatus `validate:"oneof=lead active churned"`
	Notes           string                `validate:"max=10000"`
	Tags            []string              `validate:"max=20,dive,max=50"`
	LastInteraction *time.Time
	NextFollowUp    *time.Time `field:"next_follow_up"`
}

// CustomerQuery narrows a customer listing.
type CustomerQuery struct {
	Status *domain.CustomerStatus
	Search string
	Limit  int
	Offset int
}

// NewCustomerService constructs the service.
func NewCustomerService(deps CustomerDependencies) *CustomerService {
	svc := &CustomerService{
		customers:  deps.CustomerRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		horizon:    deps.FollowUpHorizon,
		listLimit:  deps.ListLimit,
		now:        deps.Now,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.listLimit <= 0 {
		svc.listLimit = 50
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Create validates and stores a new customer owned by userID.
func (s *CustomerService) Create(ctx context.Context, userID string, input CustomerInput, source string) (*domain.Customer, error) {
	customer := &domain.Customer{UserID: userID}
	if err := applyCustomerInput(customer, input); err != nil {
		return nil, err
	}
	if customer.LastInteraction == nil {
		now := s.now().UTC()
		customer.LastInteraction = &now
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID),
		zap.String("user_id", userID),
		zap.String("source", source))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventCustomerCreated, userID, customer.ID,
			events.CustomerCreatedPayload{Name: customer.Name, Company: customer.Company, Source: source}))
	}
	return customer, nil
}

// Get returns one customer owned by userID.
func (s *CustomerService) Get(ctx context.Context, userID, id string) (*domain.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("invalid customer id", map[string]any{"customer_id": id})
	}
	customer, err := s.customers.GetByID(ctx, userID, id)
	if err != nil {
		return nil, mapCustomerErr(err, id)
	}
	return customer, nil
}

// Update replaces the editable fields of a customer owned by userID.
func (s *CustomerService) Update(ctx context.Context, userID, id string, input CustomerInput) (*domain.Customer, error) {
	customer, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyCustomerInput(customer, input); err != nil {
		return nil, err
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, mapCustomerErr(err, id)
	}
	return customer, nil
}

// Delete removes a customer owned by userID.
func (s *CustomerService) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewValidationError("invalid customer id", map[string]any{"customer_id": id})
	}
	if err := s.customers.Delete(ctx, userID, id); err != nil {
		return mapCustomerErr(err, id)
	}
	return nil
}

// List returns the owner's customers ordered by name.
func (s *CustomerService) List(ctx context.Context, userID string, query CustomerQuery) ([]domain.Customer, error) {
	if query.Status != nil && !query.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *query.Status})
	}
	filter := repository.CustomerFilter{
		UserID: userID,
		Status: query.Status,
		Limit:  s.boundLimit(query.Limit),
		Offset: query.Offset,
	}
	if term := strings.TrimSpace(query.Search); term != "" {
		filter.SearchTerm = &term
	}
	return s.customers.List(ctx, filter)
}

// DueForFollowUp lists customers whose follow-up date is on or before now plus the
// configured horizon, overdue ones included, soonest first.
func (s *CustomerService) DueForFollowUp(ctx context.Context, userID string, limit int) ([]domain.Customer, error) {
	before := s.now().Add(s.horizon)
	return s.customers.List(ctx, repository.CustomerFilter{
		UserID:         userID,
		FollowUpBefore: &before,
		Limit:          s.boundLimit(limit),
	})
}

func (s *CustomerService) boundLimit(limit int) int {
	if limit <= 0 || limit > s.listLimit {
		return s.listLimit
	}
	return limit
}

func applyCustomerInput(customer *domain.Customer, input CustomerInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Company = strings.TrimSpace(input.Company)
	input.Notes = strings.TrimSpace(input.Notes)
	input.Tags = normalizeTags(input.Tags)
	if input.Status == "" {
		input.Status = domain.CustomerStatusLead
	}
	if err := validateStruct("invalid customer", input); err != nil {
		return err
	}

	customer.Name = input.Name
	customer.Email = input.Email
	customer.Company = input.Company
	customer.Status = input.Status
	customer.Notes = input.Notes
	customer.Tags = input.Tags
	if input.LastInteraction != nil {
		customer.LastInteraction = input.LastInteraction
	}
	customer.NextFollowUp = input.NextFollowUp
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func mapCustomerErr(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("customer", map[string]any{"customer_id": id})
	}
	return err
}
