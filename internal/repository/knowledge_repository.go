package repository

import (
	"context"
	"strings"

	"github.com/spec-kit/sales-assistant/internal/domain"
)

// KnowledgeRepository stores knowledge base facts.
type KnowledgeRepository interface {
	Create(ctx context.Context, fact *domain.KnowledgeFact) error
	Search(ctx context.Context, userID, query string, limit int) ([]domain.KnowledgeFact, error)
}

type knowledgeRepository struct {
	db DBTX
}

// NewKnowledgeRepository instantiates repository.
func NewKnowledgeRepository(db DBTX) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

func (r *knowledgeRepository) Create(ctx context.Context, fact *domain.KnowledgeFact) error {
	const query = `
        INSERT INTO knowledge_base (user_id, entity_name, relation, target_entity, additional_info)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		fact.UserID,
		fact.EntityName,
		fact.Relation,
		fact.TargetEntity,
		fact.AdditionalInfo,
	).Scan(&fact.ID, &fact.CreatedAt)
}

// Search matches the term against every text column. An empty term returns the most recent facts.
func (r *knowledgeRepository) Search(ctx context.Context, userID, query string, limit int) ([]domain.KnowledgeFact, error) {
	const sql = `
        SELECT id, user_id, entity_name, relation, target_entity, additional_info, created_at
        FROM knowledge_base
        WHERE user_id=$1
          AND ($2 = '' OR entity_name ILIKE $3 ESCAPE '\' OR target_entity ILIKE $3 ESCAPE '\'
               OR relation ILIKE $3 ESCAPE '\' OR additional_info ILIKE $3 ESCAPE '\')
        ORDER BY created_at DESC
        LIMIT $4`

	term := strings.TrimSpace(query)
	rows, err := r.db.Query(ctx, sql, userID, term, containsPattern(term), clampLimit(limit, MaxListLimit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	facts := []domain.KnowledgeFact{}
	for rows.Next() {
		var f domain.KnowledgeFact
		if err := rows.Scan(&f.ID, &f.UserID, &f.EntityName, &f.Relation, &f.TargetEntity, &f.AdditionalInfo, &f.CreatedAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
