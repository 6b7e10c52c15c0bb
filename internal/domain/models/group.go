// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a formation: a cohort of 2–4 learners matched for collaborative
// study.
//
// NOTE:
//   - Members are embedded on the group document. The set is bounded at
//     four, and keeping it on one document lets the requests store enforce
//     the capacity bound with a single conditional update instead of a
//     check-then-act read against a join collection.
//   - MemberCount is kept in lockstep with MemberIDs; capacity filters
//     match on it.
type Group struct {
	ID             primitive.ObjectID   `bson:"_id" json:"id"`
	Name           string               `bson:"name" json:"name"`
	OrganizationID primitive.ObjectID   `bson:"organization_id" json:"organization_id"`
	MemberIDs      []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	MemberCount    int                  `bson:"member_count" json:"member_count"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
