package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sales-assistant/internal/domain"
)

// CustomerFilter captures list parameters. UserID is mandatory: every query is owner scoped.
type CustomerFilter struct {
	UserID         string
	Status         *domain.CustomerStatus
	SearchTerm     *string
	FollowUpBefore *time.Time
	Limit          int
	Offset         int
}

// CustomerRepository encapsulates customer persistence.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, userID, id string) error
	GetByID(ctx context.Context, userID, id string) (*domain.Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error)
}

type customerRepository struct {
	db DBTX
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, user_id, name, email, company, status, notes, tags,
               last_interaction, next_follow_up, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (user_id, name, email, company, status, notes, tags, last_interaction, next_follow_up)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		customer.UserID,
		customer.Name,
		customer.Email,
		customer.Company,
		customer.Status,
		customer.Notes,
		nonNilTags(customer.Tags),
		customer.LastInteraction,
		customer.NextFollowUp,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	const query = `
        UPDATE customers SET name=$1, email=$2, company=$3, status=$4, notes=$5, tags=$6,
            last_interaction=$7, next_follow_up=$8, updated_at=NOW()
        WHERE id=$9 AND user_id=$10
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		customer.Name,
		customer.Email,
		customer.Company,
		customer.Status,
		customer.Notes,
		nonNilTags(customer.Tags),
		customer.LastInteraction,
		customer.NextFollowUp,
		customer.ID,
		customer.UserID,
	).Scan(&customer.UpdatedAt)
}

func (r *customerRepository) Delete(ctx context.Context, userID, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, userID, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1 AND user_id=$2`
	return scanCustomer(r.db.QueryRow(ctx, query, id, userID))
}

func (r *customerRepository) List(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("customer list requires an owner")
	}

	clauses := []string{"user_id=$1"}
	args := []any{filter.UserID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, containsPattern(*filter.SearchTerm))
		clauses = append(clauses, strings.ReplaceAll(
			`(name ILIKE $n ESCAPE '\' OR company ILIKE $n ESCAPE '\' OR email ILIKE $n ESCAPE '\' OR notes ILIKE $n ESCAPE '\')`,
			"$n", fmt.Sprintf("$%d", len(args))))
	}

	order := "name"
	if filter.FollowUpBefore != nil {
		args = append(args, *filter.FollowUpBefore)
		clauses = append(clauses, fmt.Sprintf("next_follow_up IS NOT NULL AND next_follow_up <= $%d", len(args)))
		order = "next_follow_up"
	}

	args = append(args, clampLimit(filter.Limit, MaxListLimit))
	limitPos := len(args)
	args = append(args, max(filter.Offset, 0))
	offsetPos := len(args)

	query := fmt.Sprintf(`SELECT %s FROM customers WHERE %s ORDER BY %s, id LIMIT $%d OFFSET $%d`,
		customerColumns, strings.Join(clauses, " AND "), order, limitPos, offsetPos)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *customer)
	}
	return customers, rows.Err()
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Email,
		&c.Company,
		&c.Status,
		&c.Notes,
		&c.Tags,
		&c.LastInteraction,
		&c.NextFollowUp,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
