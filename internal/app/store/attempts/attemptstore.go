// internal/app/store/attempts/attemptstore.go
package attemptstore

import (
	"context"
	"time"

	"github.com/dalemusser/linguahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("quiz_attempts")}
}

// Record stores one completed quiz run.
func (s *Store) Record(ctx context.Context, a models.QuizAttempt) (models.QuizAttempt, error) {
	a.ID = primitive.NewObjectID()
	if a.CompletedAt.IsZero() {
		a.CompletedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.QuizAttempt{}, err
	}
	return a, nil
}

// LeaderboardRow is one ranked entry from the score aggregation.
type LeaderboardRow struct {
	ProfileID  primitive.ObjectID `bson:"_id" json:"profile_id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	AvatarURL  string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	TotalScore int                `bson:"total_score" json:"total_score"`
	Attempts   int                `bson:"attempts" json:"attempts"`
}

// Leaderboard aggregates total score per profile within an org, highest
// first. Ties break on attempt count (fewer attempts ranks higher).
func (s *Store) Leaderboard(ctx context.Context, orgID primitive.ObjectID, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"organization_id": orgID}}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$profile_id",
			"total_score": bson.M{"$sum": "$score"},
			"attempts":    bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "total_score", Value: -1},
			{Key: "attempts", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "profiles",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "profile",
		}}},
		{{Key: "$unwind", Value: "$profile"}},
		{{Key: "$addFields", Value: bson.M{
			"full_name":  "$profile.full_name",
			"avatar_url": "$profile.avatar_url",
		}}},
		{{Key: "$project", Value: bson.M{"profile": 0}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []LeaderboardRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ProfileStats summarizes one learner's quiz history.
type ProfileStats struct {
	TotalScore int `bson:"total_score" json:"total_score"`
	Attempts   int `bson:"attempts" json:"attempts"`
}

func (s *Store) StatsForProfile(ctx context.Context, profileID primitive.ObjectID) (ProfileStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"profile_id": profileID}}},
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"total_score": bson.M{"$sum": "$score"},
			"attempts":    bson.M{"$sum": 1},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return ProfileStats{}, err
	}
	defer cur.Close(ctx)

	var rows []ProfileStats
	if err := cur.All(ctx, &rows); err != nil {
		return ProfileStats{}, err
	}
	if len(rows) == 0 {
		return ProfileStats{}, nil
	}
	return rows[0], nil
}
