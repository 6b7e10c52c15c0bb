// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureProfiles(ctx, db); err != nil {
		problems = append(problems, "profiles: "+err.Error())
	}
	if err := ensureOrganizations(ctx, db); err != nil {
		problems = append(problems, "organizations: "+err.Error())
	}
	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensurePartnerRequests(ctx, db); err != nil {
		problems = append(problems, "partner_requests: "+err.Error())
	}
	if err := ensureQuizAttempts(ctx, db); err != nil {
		problems = append(problems, "quiz_attempts: "+err.Error())
	}
	if err := ensureLessons(ctx, db); err != nil {
		problems = append(problems, "lessons: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Mongo returns IndexOptionsConflict / IndexKeySpecsConflict when an index
// with the same name or keys already exists with different options. For
// startup reconciliation we treat that as "drop by name and recreate".
func isConflictErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "IndexOptionsConflict") || strings.Contains(s, "IndexKeySpecsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isConflictErr(err) && name != "" {
				if _, dropErr := coll.Indexes().DropOne(ctx, name); dropErr != nil {
					errs = append(errs, fmt.Sprintf("%s(%s): drop conflicting: %v", coll.Name(), name, dropErr))
					continue
				}
				if _, err2 := coll.Indexes().CreateOne(ctx, m); err2 != nil {
					errs = append(errs, fmt.Sprintf("%s(%s): recreate: %v", coll.Name(), name, err2))
				}
				continue
			}
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureProfiles(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("profiles")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all profiles (login identity).
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_profiles_email"),
		},

		// Directory listing: org members, freshest presence first.
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "last_online", Value: -1},
			},
			Options: options.Index().SetName("idx_profiles_org_lastonline"),
		},

		// Formation membership reads (teammates of a group).
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("idx_profiles_group"),
		},
	})
}

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("organizations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Enforce global uniqueness of organization names (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_nameci"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("groups")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_org"),
		},
		{
			Keys:    bson.D{{Key: "member_ids", Value: 1}},
			Options: options.Index().SetName("idx_groups_member_ids"),
		},
	})
}

func ensurePartnerRequests(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("partner_requests")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// The duplicate-pending invariant: at most one pending request per
		// (sender, receiver) pair. Partial so resolved requests don't block
		// a fresh invitation later.
		{
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "receiver_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_requests_pending_pair").
				SetPartialFilterExpression(bson.M{"status": "pending"}),
		},

		// Inbox reads: pending requests addressed to a receiver, newest first.
		{
			Keys: bson.D{
				{Key: "receiver_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_requests_receiver_status"),
		},

		// Sent-pending reads (drives the withdraw affordance).
		{
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_requests_sender_status"),
		},
	})
}

func ensureLessons(ctx context.Context, db *mongo.Database) error {
	if err := ensureIndexSet(ctx, db.Collection("lessons"), []mongo.IndexModel{
		// Catalog reads walk the curriculum in order.
		{
			Keys:    bson.D{{Key: "order_index", Value: 1}},
			Options: options.Index().SetName("idx_lessons_order"),
		},
	}); err != nil {
		return err
	}
	return ensureIndexSet(ctx, db.Collection("lesson_progress"), []mongo.IndexModel{
		// One completion mark per (learner, lesson); MarkComplete upserts
		// against this.
		{
			Keys: bson.D{
				{Key: "profile_id", Value: 1},
				{Key: "lesson_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_progress_profile_lesson"),
		},
	})
}

func ensureQuizAttempts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("quiz_attempts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Leaderboard aggregation scans an org's attempts.
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "profile_id", Value: 1},
			},
			Options: options.Index().SetName("idx_attempts_org_profile"),
		},
		// Per-profile stats (formation sidebar).
		{
			Keys: bson.D{
				{Key: "profile_id", Value: 1},
				{Key: "completed_at", Value: -1},
			},
			Options: options.Index().SetName("idx_attempts_profile_completed"),
		},
	})
}
