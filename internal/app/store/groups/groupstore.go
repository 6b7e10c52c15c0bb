// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"

	"github.com/dalemusser/linguahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads formations. Writes that change membership go through the
// requests store so that the capacity bound and request-status flips stay
// in one transaction.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// MemberCount returns the current member count for a group, 0 if the group
// does not exist.
func (s *Store) MemberCount(ctx context.Context, id primitive.ObjectID) (int, error) {
	var g models.Group
	err := s.c.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"member_count": 1}),
	).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return g.MemberCount, nil
}

// ListByOrganization returns the formations in an org, newest first.
func (s *Store) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Group, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"organization_id": orgID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
