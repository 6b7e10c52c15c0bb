// internal/domain/models/quizattempt.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuizAttempt records one completed quiz run. The leaderboard and formation
// sidebars aggregate over these.
type QuizAttempt struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProfileID      primitive.ObjectID  `bson:"profile_id" json:"profile_id"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	QuizID         string              `bson:"quiz_id" json:"quiz_id"`
	Score          int                 `bson:"score" json:"score"`
	Total          int                 `bson:"total" json:"total"`
	CompletedAt    time.Time           `bson:"completed_at" json:"completed_at"`
}
