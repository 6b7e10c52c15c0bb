// internal/app/store/requests/queries.go
package requeststore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IncomingItem is one pending request addressed to the viewer, joined with
// the sender's display fields. This is the catch-up payload: a client that
// missed live events rebuilds its notification panel from these.
type IncomingItem struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	SenderID        primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	SenderName      string             `bson:"sender_name" json:"sender_name"`
	SenderAvatarURL string             `bson:"sender_avatar_url,omitempty" json:"sender_avatar_url,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// SentItem is one request the viewer sent, with its current status so the
// sender sees declines.
type SentItem struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	ReceiverID        primitive.ObjectID `bson:"receiver_id" json:"receiver_id"`
	ReceiverName      string             `bson:"receiver_name" json:"receiver_name"`
	ReceiverAvatarURL string             `bson:"receiver_avatar_url,omitempty" json:"receiver_avatar_url,omitempty"`
	Status            string             `bson:"status" json:"status"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// PendingIncoming returns the viewer's pending requests, newest first.
func (s *Store) PendingIncoming(ctx context.Context, receiverID primitive.ObjectID) ([]IncomingItem, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"receiver_id": receiverID,
			"status":      "pending",
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "profiles",
			"localField":   "sender_id",
			"foreignField": "_id",
			"as":           "sender",
		}}},
		{{Key: "$unwind", Value: "$sender"}},
		{{Key: "$project", Value: bson.M{
			"sender_id":         1,
			"created_at":        1,
			"sender_name":       "$sender.full_name",
			"sender_avatar_url": "$sender.avatar_url",
		}}},
	}

	cur, err := s.reqs.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []IncomingItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Sent returns the viewer's outgoing requests (any status), newest first.
func (s *Store) Sent(ctx context.Context, senderID primitive.ObjectID) ([]SentItem, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"sender_id": senderID}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "profiles",
			"localField":   "receiver_id",
			"foreignField": "_id",
			"as":           "receiver",
		}}},
		{{Key: "$unwind", Value: "$receiver"}},
		{{Key: "$project", Value: bson.M{
			"receiver_id":         1,
			"status":              1,
			"created_at":          1,
			"receiver_name":       "$receiver.full_name",
			"receiver_avatar_url": "$receiver.avatar_url",
		}}},
	}

	cur, err := s.reqs.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []SentItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteStalePending removes pending requests older than maxAge. Senders
// can always re-ask; receivers who never answered stop seeing months-old
// invitations in their catch-up fetch.
func (s *Store) DeleteStalePending(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := s.reqs.DeleteMany(ctx, bson.M{
		"status":     "pending",
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// HasPendingBetween reports whether a pending request exists in either
// direction between two learners. The directory uses it to label entries.
func (s *Store) HasPendingBetween(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	n, err := s.reqs.CountDocuments(ctx, bson.M{
		"status": "pending",
		"$or": []bson.M{
			{"sender_id": a, "receiver_id": b},
			{"sender_id": b, "receiver_id": a},
		},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
