// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/sales-assistant/internal/domain"
	"github.com/spec-kit/sales-assistant/internal/repository"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu           sync.Mutex
	byID         map[string]*domain.User
	approveCalls int
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{byID: map[string]*domain.User{}}
}

var _ repository.UserRepository = (*Users)(nil)

func (m *Users) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == user.Username {
			return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"users_username_key\""}
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *Users) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *Users) Approve(_ context.Context, username, approverID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approveCalls++
	for _, u := range m.byID {
		if u.Username != username {
			continue
		}
		if u.Status == domain.UserStatusPending {
			now := time.Now()
			u.Status = domain.UserStatusApproved
			u.ApprovedAt = &now
			u.ApprovedBy = &approverID
			u.UpdatedAt = now
		}
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *Users) ListByStatus(_ context.Context, status domain.UserStatus, limit int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.User{}
	for _, u := range m.byID {
		if u.Status == status {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ApproveCalls reports how many times Approve reached the store.
func (m *Users) ApproveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approveCalls
}

// Customers is an in-memory repository.CustomerRepository.
type Customers struct {
	mu   sync.Mutex
	rows map[string]*domain.Customer
	last repository.CustomerFilter
}

// NewCustomers returns an empty customer store.
func NewCustomers() *Customers {
	return &Customers{rows: map[string]*domain.Customer{}}
}

var _ repository.CustomerRepository = (*Customers)(nil)

func (m *Customers) Create(_ context.Context, c *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *Customers) Update(_ context.Context, c *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rows[c.ID]
	if !ok || existing.UserID != c.UserID {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *Customers) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rows[id]
	if !ok || existing.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

func (m *Customers) GetByID(_ context.Context, userID, id string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *Customers) List(_ context.Context, f repository.CustomerFilter) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = f
	out := []domain.Customer{}
	for _, c := range m.rows {
		if c.UserID != f.UserID {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		if f.SearchTerm != nil && !containsFold(c.Name+" "+c.Company+" "+c.Email+" "+c.Notes, *f.SearchTerm) {
			continue
		}
		if f.FollowUpBefore != nil && (c.NextFollowUp == nil || c.NextFollowUp.After(*f.FollowUpBefore)) {
			continue
		}
		out = append(out, *c)
	}
	if f.FollowUpBefore != nil {
		sort.Slice(out, func(i, j int) bool { return out[i].NextFollowUp.Before(*out[j].NextFollowUp) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []domain.Customer{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// LastFilter returns the filter of the most recent List call.
func (m *Customers) LastFilter() repository.CustomerFilter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Knowledge is an in-memory repository.KnowledgeRepository.
type Knowledge struct {
	mu    sync.Mutex
	facts []domain.KnowledgeFact
}

// NewKnowledge returns an empty knowledge store.
func NewKnowledge() *Knowledge {
	return &Knowledge{}
}

var _ repository.KnowledgeRepository = (*Knowledge)(nil)

func (m *Knowledge) Create(_ context.Context, f *domain.KnowledgeFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.NewString()
	f.CreatedAt = time.Now()
	m.facts = append(m.facts, *f)
	return nil
}

func (m *Knowledge) Search(_ context.Context, userID, query string, limit int) ([]domain.KnowledgeFact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	query = strings.TrimSpace(query)
	out := []domain.KnowledgeFact{}
	for i := len(m.facts) - 1; i >= 0; i-- {
		f := m.facts[i]
		if f.UserID != userID {
			continue
		}
		if query != "" && !containsFold(f.EntityName+" "+f.Relation+" "+f.TargetEntity+" "+f.AdditionalInfo, query) {
			continue
		}
		out = append(out, f)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}
