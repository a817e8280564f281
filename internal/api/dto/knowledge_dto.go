package dto

import (
	"time"

	"github.com/spec-kit/sales-assistant/internal/domain"
)

// KnowledgeRequest records one fact.
type KnowledgeRequest struct {
	EntityName     string `json:"entity_name"`
	Relation       string `json:"relation"`
	TargetEntity   string `json:"target_entity"`
	AdditionalInfo string `json:"additional_info"`
}

// KnowledgeResponse is the API view of a fact.
type KnowledgeResponse struct {
	ID             string    `json:"id"`
	EntityName     string    `json:"entity_name"`
	Relation       string    `json:"relation"`
	TargetEntity   string    `json:"target_entity"`
	AdditionalInfo string    `json:"additional_info"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewKnowledgeResponse(f *domain.KnowledgeFact) KnowledgeResponse {
	return KnowledgeResponse{
		ID:             f.ID,
		EntityName:     f.EntityName,
		Relation:       f.Relation,
		TargetEntity:   f.TargetEntity,
		AdditionalInfo: f.AdditionalInfo,
		CreatedAt:      f.CreatedAt,
	}
}
