// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/linguahub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates a test organization with the given name.
// Returns the created organization with its generated ID.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("organizations").InsertOne(ctx, org)
	if err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateStudent creates a student profile in the given organization.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email string, orgID primitive.ObjectID) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		ID:             primitive.NewObjectID(),
		FullName:       name,
		FullNameCI:     text.Fold(name),
		Email:          email,
		Role:           "student",
		Status:         "active",
		OrganizationID: &orgID,
		LastOnline:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := f.db.Collection("profiles").InsertOne(ctx, p)
	if err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}

	return p
}

// CreateGroup creates a formation with the given members and points each
// member profile's group_id at it, the same shape the accept transition
// leaves behind.
func (f *Fixtures) CreateGroup(ctx context.Context, orgID primitive.ObjectID, memberIDs ...primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:             primitive.NewObjectID(),
		Name:           "Test Formation",
		OrganizationID: orgID,
		MemberIDs:      memberIDs,
		MemberCount:    len(memberIDs),
		Status:         "active",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}

	if len(memberIDs) > 0 {
		_, err := f.db.Collection("profiles").UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": memberIDs}},
			bson.M{"$set": bson.M{"group_id": g.ID, "updated_at": now}})
		if err != nil {
			f.t.Fatalf("failed to link members to test group: %v", err)
		}
	}

	return g
}

// CreatePendingRequest inserts a pending partner request directly.
func (f *Fixtures) CreatePendingRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) models.PartnerRequest {
	f.t.Helper()

	req := models.PartnerRequest{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.RequestPending,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := f.db.Collection("partner_requests").InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create test partner request: %v", err)
	}

	return req
}

// CreateQuizAttempt records a completed quiz attempt for a profile.
func (f *Fixtures) CreateQuizAttempt(ctx context.Context, profileID primitive.ObjectID, orgID primitive.ObjectID, score, total int) models.QuizAttempt {
	f.t.Helper()

	a := models.QuizAttempt{
		ID:             primitive.NewObjectID(),
		ProfileID:      profileID,
		OrganizationID: &orgID,
		QuizID:         "placement-1",
		Score:          score,
		Total:          total,
		CompletedAt:    time.Now().UTC(),
	}

	if _, err := f.db.Collection("quiz_attempts").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test quiz attempt: %v", err)
	}

	return a
}
