// internal/app/store/requests/requeststore.go

// Package requeststore is the partner-request ledger. It owns every write
// that moves a request out of "pending" and every write that changes group
// membership, so the two stay consistent:
//
//   - at most one pending request per (sender, receiver) pair, held by a
//     unique partial index rather than application reads;
//   - a group never exceeds capacity.MaxMembers, enforced by embedding
//     capacity.AdmitFilter in the same update that adds the member;
//   - the accept transition (status flip + membership + profile group_id)
//     runs in a MongoDB transaction, falling back to a keyed mutex with
//     the same conditional updates on standalone servers.
package requeststore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/linguahub/internal/app/notify"
	"github.com/dalemusser/linguahub/internal/app/system/capacity"
	"github.com/dalemusser/linguahub/internal/app/system/status"
	"github.com/dalemusser/linguahub/internal/app/system/txn"
	"github.com/dalemusser/linguahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Sentinel errors for the request lifecycle. Handlers map these onto the
// JSON error envelope.
var (
	ErrSelfRequest      = errors.New("cannot send a partner request to yourself")
	ErrDuplicatePending = errors.New("a pending request to this learner already exists")
	ErrGroupFull        = errors.New("the formation is already at capacity")
	ErrNotPending       = errors.New("the request is no longer pending")
	ErrNotOwner         = errors.New("only the sender may withdraw a request")
	ErrNotReceiver      = errors.New("only the receiver may respond to a request")
	ErrAlreadyGrouped   = errors.New("learner already belongs to a formation")
)

type Store struct {
	db       *mongo.Database
	client   *mongo.Client
	reqs     *mongo.Collection
	profiles *mongo.Collection
	groups   *mongo.Collection
	hub      *notify.Hub
	log      *zap.Logger

	// fallback serializer for servers without transaction support; lazily
	// engaged the first time txn.WithTransaction reports not-supported.
	locks *keyedMutex
}

func New(db *mongo.Database, hub *notify.Hub, logger *zap.Logger) *Store {
	return &Store{
		db:       db,
		client:   db.Client(),
		reqs:     db.Collection("partner_requests"),
		profiles: db.Collection("profiles"),
		groups:   db.Collection("groups"),
		hub:      hub,
		log:      logger,
		locks:    newKeyedMutex(),
	}
}

// Submit records a pending request from sender to receiver and notifies the
// receiver's live feed. Validation here is advisory where it races (a full
// group can still empty a seat before the accept); the duplicate-pending
// bound is hard, held by the unique partial index.
func (s *Store) Submit(ctx context.Context, senderID, receiverID primitive.ObjectID) (models.PartnerRequest, error) {
	if senderID == receiverID {
		return models.PartnerRequest{}, ErrSelfRequest
	}

	sender, err := s.loadProfile(ctx, senderID)
	if err != nil {
		return models.PartnerRequest{}, err
	}
	receiver, err := s.loadProfile(ctx, receiverID)
	if err != nil {
		return models.PartnerRequest{}, err
	}
	if receiver.Status != "" && receiver.Status != status.Active {
		return models.PartnerRequest{}, mongo.ErrNoDocuments
	}

	if sender.GroupID != nil && receiver.GroupID != nil {
		// Same formation or two formations that can never merge.
		return models.PartnerRequest{}, ErrAlreadyGrouped
	}
	if target := joinTarget(sender, receiver); target != nil {
		ok, err := capacity.CanAdmit(ctx, s.db, *target, 1)
		if err != nil && err != mongo.ErrNoDocuments {
			return models.PartnerRequest{}, err
		}
		if err == nil && !ok {
			return models.PartnerRequest{}, ErrGroupFull
		}
	}

	req := models.PartnerRequest{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.RequestPending,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.reqs.InsertOne(ctx, req); err != nil {
		if wafflemongo.IsDup(err) {
			// Surface the existing pending row so the caller can reuse its
			// id instead of retrying.
			var existing models.PartnerRequest
			ferr := s.reqs.FindOne(ctx, bson.M{
				"sender_id":   senderID,
				"receiver_id": receiverID,
				"status":      models.RequestPending,
			}).Decode(&existing)
			if ferr != nil {
				// The duplicate was resolved between our insert and read.
				return models.PartnerRequest{}, ErrDuplicatePending
			}
			return existing, ErrDuplicatePending
		}
		return models.PartnerRequest{}, err
	}

	s.hub.Publish(receiverID.Hex(), notify.Event{
		Type:      notify.EventRequestCreated,
		RequestID: req.ID.Hex(),
		Sender: notify.SenderSummary{
			ID:        sender.ID.Hex(),
			FullName:  sender.FullName,
			AvatarURL: sender.AvatarURL,
		},
		CreatedAt: req.CreatedAt,
	})
	return req, nil
}

// Withdraw deletes a pending request. Only the sender may withdraw, and
// only while the request is still pending.
func (s *Store) Withdraw(ctx context.Context, requestID, actorID primitive.ObjectID) error {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.SenderID != actorID {
		return ErrNotOwner
	}

	// Conditional delete so a concurrent accept/decline wins cleanly.
	res, err := s.reqs.DeleteOne(ctx, bson.M{
		"_id":    requestID,
		"status": models.RequestPending,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotPending
	}

	sender, err := s.loadProfile(ctx, req.SenderID)
	if err != nil {
		// Notification is best-effort once the delete landed.
		s.log.Warn("withdraw: sender lookup for notification failed",
			zap.String("request_id", requestID.Hex()), zap.Error(err))
		sender = &models.Profile{ID: req.SenderID}
	}
	s.hub.Publish(req.ReceiverID.Hex(), notify.Event{
		Type:      notify.EventRequestWithdrawn,
		RequestID: requestID.Hex(),
		Sender: notify.SenderSummary{
			ID:        sender.ID.Hex(),
			FullName:  sender.FullName,
			AvatarURL: sender.AvatarURL,
		},
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Decline flips a pending request to declined. The row is retained so the
// sender can see the outcome.
func (s *Store) Decline(ctx context.Context, requestID, actorID primitive.ObjectID) error {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ReceiverID != actorID {
		return ErrNotReceiver
	}

	res, err := s.reqs.UpdateOne(ctx,
		bson.M{"_id": requestID, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": models.RequestDeclined}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

// Accept flips a pending request to accepted and applies the membership
// change: the ungrouped side joins the grouped side's formation, or a new
// two-member formation is created when neither side has one. The whole
// transition is transactional; on servers without transaction support it
// runs under a keyed mutex with the same conditional updates, so the
// capacity bound holds either way.
//
// Returns the formation the pair now belongs to.
func (s *Store) Accept(ctx context.Context, requestID, actorID primitive.ObjectID) (*models.Group, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != actorID {
		return nil, ErrNotReceiver
	}
	if req.Status != models.RequestPending {
		return nil, ErrNotPending
	}

	sender, err := s.loadProfile(ctx, req.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.loadProfile(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if sender.GroupID != nil && receiver.GroupID != nil {
		return nil, ErrAlreadyGrouped
	}

	result, err := txn.WithTransaction(ctx, s.client, func(sc mongo.SessionContext) (interface{}, error) {
		return s.applyAccept(sc, req, sender, receiver, false)
	})
	if err != nil && txn.IsNotSupported(err) {
		s.log.Debug("accept: transactions unavailable, using keyed-mutex fallback",
			zap.String("request_id", requestID.Hex()))
		key := acceptLockKey(sender, receiver)
		s.locks.Lock(key)
		defer s.locks.Unlock(key)
		result, err = s.applyAccept(ctx, req, sender, receiver, true)
	}
	if err != nil {
		return nil, err
	}
	return result.(*models.Group), nil
}

// applyAccept performs the accept writes in order: status flip, joiner
// profile claim, membership. Each step is conditional so a lost race
// surfaces as a sentinel instead of a corrupt state. When compensate is
// true (non-transactional path) earlier steps are reverted on failure;
// inside a transaction the abort does that for us.
func (s *Store) applyAccept(ctx context.Context, req models.PartnerRequest, sender, receiver *models.Profile, compensate bool) (interface{}, error) {
	flip, err := s.reqs.UpdateOne(ctx,
		bson.M{"_id": req.ID, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": models.RequestAccepted}},
	)
	if err != nil {
		return nil, err
	}
	if flip.MatchedCount == 0 {
		return nil, ErrNotPending
	}
	revertFlip := func() {
		if !compensate {
			return
		}
		if _, rerr := s.reqs.UpdateOne(ctx,
			bson.M{"_id": req.ID, "status": models.RequestAccepted},
			bson.M{"$set": bson.M{"status": models.RequestPending}},
		); rerr != nil {
			s.log.Error("accept: status revert failed",
				zap.String("request_id", req.ID.Hex()), zap.Error(rerr))
		}
	}

	now := time.Now().UTC()

	if target := joinTarget(sender, receiver); target != nil {
		joiner := sender
		if receiver.GroupID == nil {
			joiner = receiver
		}
		g, err := s.admitMember(ctx, *target, joiner.ID, now, compensate)
		if err != nil {
			revertFlip()
			return nil, err
		}
		return g, nil
	}

	g, err := s.createFormation(ctx, sender, receiver, now, compensate)
	if err != nil {
		revertFlip()
		return nil, err
	}
	return g, nil
}

// admitMember claims the joiner's profile and pushes them into the group.
// The profile claim is conditional on group_id being unset; the push is
// conditional on the capacity filter.
func (s *Store) admitMember(ctx context.Context, groupID, joinerID primitive.ObjectID, now time.Time, compensate bool) (*models.Group, error) {
	claim, err := s.profiles.UpdateOne(ctx,
		bson.M{"_id": joinerID, "group_id": nil},
		bson.M{"$set": bson.M{"group_id": groupID, "updated_at": now}},
	)
	if err != nil {
		return nil, err
	}
	if claim.MatchedCount == 0 {
		return nil, ErrAlreadyGrouped
	}
	releaseClaim := func() {
		if !compensate {
			return
		}
		if _, rerr := s.profiles.UpdateOne(ctx,
			bson.M{"_id": joinerID, "group_id": groupID},
			bson.M{"$unset": bson.M{"group_id": ""}},
		); rerr != nil {
			s.log.Error("accept: profile claim revert failed",
				zap.String("profile_id", joinerID.Hex()), zap.Error(rerr))
		}
	}

	filter := capacity.AdmitFilter(groupID, 1)
	var g models.Group
	err = s.groups.FindOneAndUpdate(ctx, filter,
		bson.M{
			"$push": bson.M{"member_ids": joinerID},
			"$inc":  bson.M{"member_count": 1},
			"$set":  bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&g)
	if err == mongo.ErrNoDocuments {
		releaseClaim()
		return nil, ErrGroupFull
	}
	if err != nil {
		releaseClaim()
		return nil, err
	}
	return &g, nil
}

// createFormation makes a fresh two-member group and claims both profiles.
func (s *Store) createFormation(ctx context.Context, sender, receiver *models.Profile, now time.Time, compensate bool) (*models.Group, error) {
	if sender.OrganizationID == nil || receiver.OrganizationID == nil ||
		*sender.OrganizationID != *receiver.OrganizationID {
		return nil, ErrAlreadyGrouped
	}

	g := models.Group{
		ID:             primitive.NewObjectID(),
		Name:           fmt.Sprintf("%s & %s", sender.FullName, receiver.FullName),
		OrganizationID: *sender.OrganizationID,
		MemberIDs:      []primitive.ObjectID{sender.ID, receiver.ID},
		MemberCount:    2,
		Status:         status.Active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.groups.InsertOne(ctx, g); err != nil {
		return nil, err
	}
	removeGroup := func() {
		if !compensate {
			return
		}
		if _, rerr := s.groups.DeleteOne(ctx, bson.M{"_id": g.ID}); rerr != nil {
			s.log.Error("accept: group cleanup failed",
				zap.String("group_id", g.ID.Hex()), zap.Error(rerr))
		}
	}

	claimed := make([]primitive.ObjectID, 0, 2)
	for _, pid := range []primitive.ObjectID{sender.ID, receiver.ID} {
		res, err := s.profiles.UpdateOne(ctx,
			bson.M{"_id": pid, "group_id": nil},
			bson.M{"$set": bson.M{"group_id": g.ID, "updated_at": now}},
		)
		if err == nil && res.MatchedCount == 0 {
			err = ErrAlreadyGrouped
		}
		if err != nil {
			if compensate {
				for _, cid := range claimed {
					if _, rerr := s.profiles.UpdateOne(ctx,
						bson.M{"_id": cid, "group_id": g.ID},
						bson.M{"$unset": bson.M{"group_id": ""}},
					); rerr != nil {
						s.log.Error("accept: profile claim revert failed",
							zap.String("profile_id", cid.Hex()), zap.Error(rerr))
					}
				}
			}
			removeGroup()
			return nil, err
		}
		claimed = append(claimed, pid)
	}
	return &g, nil
}

// loadRequest reads a ledger row by id. A missing row reports ErrNotPending:
// from the caller's view an already-withdrawn request and an already-resolved
// one are the same condition.
func (s *Store) loadRequest(ctx context.Context, id primitive.ObjectID) (models.PartnerRequest, error) {
	var req models.PartnerRequest
	if err := s.reqs.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.PartnerRequest{}, ErrNotPending
		}
		return models.PartnerRequest{}, err
	}
	return req, nil
}

func (s *Store) loadProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	if err := s.profiles.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// joinTarget returns the group the ungrouped side would join, nil when
// neither side has one (or both do; callers reject that case first).
func joinTarget(sender, receiver *models.Profile) *primitive.ObjectID {
	if sender.GroupID != nil && receiver.GroupID == nil {
		return sender.GroupID
	}
	if receiver.GroupID != nil && sender.GroupID == nil {
		return receiver.GroupID
	}
	return nil
}

// acceptLockKey picks the serialization key for the fallback path: the
// target formation when one exists, else a canonical pair key.
func acceptLockKey(sender, receiver *models.Profile) string {
	if target := joinTarget(sender, receiver); target != nil {
		return "group:" + target.Hex()
	}
	a, b := sender.ID.Hex(), receiver.ID.Hex()
	if b < a {
		a, b = b, a
	}
	return "pair:" + a + ":" + b
}
