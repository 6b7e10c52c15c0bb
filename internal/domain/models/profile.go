// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile represents a learner identity.
//
// NOTE:
//   - GroupID is written only by the partner-request accept transition;
//     every other writer treats it as read-only.
//   - LastOnline is stamped by the heartbeat endpoint.
type Profile struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName       string              `bson:"full_name" json:"full_name"`
	FullNameCI     string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email          string              `bson:"email" json:"email"`
	PasswordHash   string              `bson:"password_hash" json:"-"`
	AvatarURL      string              `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Bio            string              `bson:"bio,omitempty" json:"bio,omitempty"`
	Role           string              `bson:"role" json:"role"` // admin | student
	Status         string              `bson:"status,omitempty" json:"status,omitempty"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	GroupID        *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	LastOnline     time.Time           `bson:"last_online" json:"last_online"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
