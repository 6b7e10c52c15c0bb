// internal/app/system/capacity/capacity.go

// Package capacity holds the formation size invariant: a group never grows
// past MaxMembers. The predicate here is advisory (used to disable controls
// and pre-flight submissions); hard enforcement happens in the requests
// store, which embeds AdmitFilter in the same update that adds the member.
package capacity

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// MaxMembers is the hard upper bound on formation size.
	MaxMembers = 4
	// MinMembers is the formation floor: a persisted group always has at
	// least two members. Three is a product recommendation, not enforced.
	MinMembers = 2
)

// Fits reports whether a group currently holding current members can admit
// incoming more. For a not-yet-formed group the caller passes current=1
// (the sender alone).
func Fits(current, incoming int) bool {
	return current+incoming <= MaxMembers
}

// CanAdmit reports whether the group may take incoming more members.
// Returns mongo.ErrNoDocuments when the group does not exist.
func CanAdmit(ctx context.Context, db *mongo.Database, groupID primitive.ObjectID, incoming int) (bool, error) {
	var g struct {
		MemberCount int `bson:"member_count"`
	}
	err := db.Collection("groups").
		FindOne(ctx, bson.M{"_id": groupID}).
		Decode(&g)
	if err != nil {
		return false, err
	}
	return Fits(g.MemberCount, incoming), nil
}

// AdmitFilter is the filter a member-adding update must use so that the
// capacity check and the mutation are one atomic document operation. An
// update with this filter matches zero documents when the group is too full,
// which the caller reports as a capacity rejection.
func AdmitFilter(groupID primitive.ObjectID, incoming int) bson.M {
	return bson.M{
		"_id":          groupID,
		"member_count": bson.M{"$lte": MaxMembers - incoming},
	}
}
