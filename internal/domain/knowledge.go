package domain

import "time"

// KnowledgeFact is a subject/relation/object triple recorded by a user,
// e.g. "Acme Corp" --uses--> "Salesforce".
type KnowledgeFact struct {
	ID             string
	UserID         string
	EntityName     string
	Relation       string
	TargetEntity   string
	AdditionalInfo string
	CreatedAt      time.Time
}
