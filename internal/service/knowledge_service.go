package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sales-assistant/internal/domain"
	"github.com/spec-kit/sales-assistant/internal/events"
	"github.com/spec-kit/sales-assistant/internal/repository"
)

// KnowledgeService records and searches knowledge base facts.
type KnowledgeService struct {
	facts      repository.KnowledgeRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	listLimit  int
}

// KnowledgeInput describes one fact.
type KnowledgeInput struct {
	EntityName     string `field:"entity_name" validate:"required,max=200"`
	Relation       string `field:"relation" validate:"required,max=100"`
	TargetEntity   string `field:"target_entity" validate:"required,max=200"`
	AdditionalInfo string `field:"additional_info" validate:"max=2000"`
}

// NewKnowledgeService constructs the service.
func NewKnowledgeService(facts repository.KnowledgeRepository, dispatcher events.Dispatcher, logger *zap.Logger, listLimit int) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if listLimit <= 0 {
		listLimit = 50
	}
	return &KnowledgeService{facts: facts, dispatcher: dispatcher, logger: logger, listLimit: listLimit}
}

// Add stores a fact owned by userID.
func (s *KnowledgeService) Add(ctx context.Context, userID string, input KnowledgeInput) (*domain.KnowledgeFact, error) {
	input.EntityName = strings.TrimSpace(input.EntityName)
	input.Relation = strings.TrimSpace(input.Relation)
	input.TargetEntity = strings.TrimSpace(input.TargetEntity)
	input.AdditionalInfo = strings.TrimSpace(input.AdditionalInfo)
	if err := validateStruct("invalid knowledge entry", input); err != nil {
		return nil, err
	}

	fact := &domain.KnowledgeFact{
		UserID:         userID,
		EntityName:     input.EntityName,
		Relation:       input.Relation,
		TargetEntity:   input.TargetEntity,
		AdditionalInfo: input.AdditionalInfo,
	}
	if err := s.facts.Create(ctx, fact); err != nil {
		return nil, fmt.Errorf("create knowledge fact: %w", err)
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventKnowledgeAdded, userID, fact.ID,
			events.KnowledgeAddedPayload{EntityName: fact.EntityName, Relation: fact.Relation, TargetEntity: fact.TargetEntity}))
	}
	return fact, nil
}

// Search returns the owner's facts matching query, newest first.
func (s *KnowledgeService) Search(ctx context.Context, userID, query string, limit int) ([]domain.KnowledgeFact, error) {
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}
	return s.facts.Search(ctx, userID, query, limit)
}
