// internal/app/store/organizations/orgstore.go
package orgstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/linguahub/internal/app/system/normalize"
	"github.com/dalemusser/linguahub/internal/app/system/status"
	"github.com/dalemusser/linguahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateName = errors.New("an organization with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Organization, error) {
	var o models.Organization
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts a new organization. Name collisions (case/diacritic
// insensitive) map to ErrDuplicateName.
func (s *Store) Create(ctx context.Context, name, logoURL string) (models.Organization, error) {
	now := time.Now().UTC()
	o := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      normalize.Name(name),
		NameCI:    text.Fold(normalize.Name(name)),
		LogoURL:   logoURL,
		Status:    status.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, o); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateName
		}
		return models.Organization{}, err
	}
	return o, nil
}

// ListActive returns active organizations sorted by folded name.
func (s *Store) ListActive(ctx context.Context) ([]models.Organization, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"status": status.Active},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Organization
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
