// internal/domain/models/partnerrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Partner request statuses. A request leaves "pending" exactly once;
// withdrawal deletes the row instead of adding a fourth status.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// PartnerRequest is a directed invitation from one learner to another to
// form or join a group. For a given (sender, receiver) pair at most one
// pending request exists at a time; that invariant is held by a unique
// partial index, not application reads.
type PartnerRequest struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiver_id"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
