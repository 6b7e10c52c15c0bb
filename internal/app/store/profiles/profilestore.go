// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/linguahub/internal/app/system/normalize"
	"github.com/dalemusser/linguahub/internal/app/system/paging"
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

// ErrDuplicateEmail is returned when attempting to create a profile with an
// email that already exists.
var ErrDuplicateEmail = errors.New("a profile with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// GetByID loads a profile by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail looks up a profile by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new profile after normalizing fields.
func (s *Store) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.FullName = normalize.Name(p.FullName)
	p.FullNameCI = text.Fold(p.FullName)
	p.Email = normalize.Email(p.Email)
	if p.Role == "" {
		p.Role = "student"
	}
	if p.Status == "" {
		p.Status = status.Active
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Profile{}, ErrDuplicateEmail
		}
		return models.Profile{}, err
	}
	return p, nil
}

// UpdateInfo updates the user-editable display fields. Values are assumed
// to be sanitized by the caller (the profile feature owns that policy).
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, fullName, bio, avatarURL string) error {
	set := bson.M{
		"bio":        bio,
		"avatar_url": avatarURL,
		"updated_at": time.Now().UTC(),
	}
	if name := normalize.Name(fullName); name != "" {
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// TouchLastOnline stamps the presence timestamp for a profile.
func (s *Store) TouchLastOnline(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"last_online": time.Now().UTC()},
	})
	return err
}

// ListByOrganization returns active org members ordered by most recent
// presence. The viewer is included; callers filter if they need to.
func (s *Store) ListByOrganization(ctx context.Context, orgID primitive.ObjectID, limit int64) ([]models.Profile, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_online", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, bson.M{
		"organization_id": orgID,
		"status":          status.Active,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PageByName returns one keyset page of active org members ordered by
// folded name. Callers trim the look-ahead row with paging.TrimPage.
func (s *Store) PageByName(ctx context.Context, orgID primitive.ObjectID, cfg paging.KeysetConfig) ([]models.Profile, error) {
	filter := bson.M{
		"organization_id": orgID,
		"status":          status.Active,
	}
	if win := cfg.KeysetWindow("full_name_ci"); win != nil {
		filter = bson.M{"$and": []bson.M{filter, win}}
	}

	find := options.Find()
	cfg.ApplyToFind(find, "full_name_ci")

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByGroup returns the member profiles of a formation.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Profile, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
