package service

import (
	"context"
	"time"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SendRequest creates a pending friendship record. Self-requests and
// duplicate pairs in either direction are rejected; the unique pair_key
// index backs the duplicate check under concurrency.
func SendRequest(ctx context.Context, requesterID, addresseeID string) (*model.Friendship, error) {
	if requesterID == "" || addresseeID == "" {
		return nil, errs.ErrArgs.WrapMsg("requester and addressee required")
	}
	if requesterID == addresseeID {
		return nil, errs.ErrArgs.WrapMsg("cannot friend yourself", "userID", requesterID)
	}

	now := time.Now()
	f := &model.Friendship{
		ID:          ids.GenerateString(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		PairKey:     model.PairKey(requesterID, addresseeID),
		Status:      model.FriendshipRequested,
		CreateTime:  now,
		UpdateTime:  now,
	}
	if _, err := f.Collection().InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrDuplicated.WrapMsg("relationship already exists", "pair", f.PairKey)
		}
		return nil, errs.WrapMsg(err, "insert friendship")
	}
	return f, nil
}

// AcceptRequest flips the pending record to accepted and materializes the
// private conversation. Only the original addressee may accept. The
// conversation step is idempotent and retryable: re-accepting an
// already-accepted pair re-runs it instead of failing, so a crash between
// the two writes is recoverable by repeating the same call. A pair with no
// record at all is NotFound and creates nothing.
func AcceptRequest(ctx context.Context, accepterID, requesterID string) (*model.Friendship, *model.Conversation, error) {
	now := time.Now()
	var f model.Friendship
	err := (&model.Friendship{}).Collection().FindOneAndUpdate(ctx,
		bson.M{
			"requester_id": requesterID,
			"addressee_id": accepterID,
			"status":       model.FriendshipRequested,
		},
		bson.M{"$set": bson.M{"status": model.FriendshipAccepted, "update_time": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&f)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, nil, errs.WrapMsg(err, "accept friendship")
		}
		// No pending record: either never requested, ids swapped, or this
		// is a retry after the conversation step failed. Only the retry
		// case (pair already accepted) proceeds.
		existing, ferr := findPair(ctx, accepterID, requesterID)
		if ferr != nil {
			return nil, nil, ferr
		}
		if existing == nil || existing.Status != model.FriendshipAccepted {
			return nil, nil, errs.ErrRelationshipNotFound.WrapMsg("no pending request",
				"requester", requesterID, "accepter", accepterID)
		}
		f = *existing
	}

	conv, err := GetOrCreatePrivateConversation(ctx, requesterID, accepterID)
	if err != nil {
		// Friendship is already accepted; the caller retries the same
		// accept to re-attempt conversation creation.
		return &f, nil, err
	}
	return &f, conv, nil
}

// DeclineRequest deletes the pending record. Pre-acceptance this is
// equivalent to removal; there is no declined terminal state.
func DeclineRequest(ctx context.Context, userA, userB string) error {
	return RemoveFriendship(ctx, userA, userB)
}

// RemoveFriendship deletes the pair record in either direction, regardless
// of status. Deleting a non-existent relationship is not an error.
func RemoveFriendship(ctx context.Context, userA, userB string) error {
	_, err := (&model.Friendship{}).Collection().DeleteOne(ctx, bson.M{
		"pair_key": model.PairKey(userA, userB),
	})
	if err != nil {
		return errs.WrapMsg(err, "remove friendship")
	}
	return nil
}

func findPair(ctx context.Context, userA, userB string) (*model.Friendship, error) {
	var f model.Friendship
	err := (&model.Friendship{}).Collection().FindOne(ctx, bson.M{
		"pair_key": model.PairKey(userA, userB),
	}).Decode(&f)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, errs.Wrap(err)
	}
	return &f, nil
}

// ListFriends returns profile projections for every accepted relationship
// touching userID.
func ListFriends(ctx context.Context, userID string) ([]model.Profile, error) {
	rels, err := findTouching(ctx, userID, bson.M{"status": model.FriendshipAccepted})
	if err != nil {
		return nil, err
	}
	return resolveOthers(ctx, userID, rels)
}

// ListPendingIncoming returns profiles of users whose requests to userID
// are still pending.
func ListPendingIncoming(ctx context.Context, userID string) ([]model.Profile, error) {
	cur, err := (&model.Friendship{}).Collection().Find(ctx, bson.M{
		"addressee_id": userID,
		"status":       model.FriendshipRequested,
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	rels, err := decodeFriendships(ctx, cur)
	if err != nil {
		return nil, err
	}
	return resolveOthers(ctx, userID, rels)
}

// RelationMap prefetches every relationship touching userID keyed by the
// other party's id, so per-candidate classification is an O(1) lookup
// instead of one query per candidate.
func RelationMap(ctx context.Context, userID string) (map[string]*model.Friendship, error) {
	rels, err := findTouching(ctx, userID, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.Friendship, len(rels))
	for i := range rels {
		out[rels[i].Other(userID)] = &rels[i]
	}
	return out, nil
}

// Classify derives the relationship of candidateID relative to userID from
// a prefetched relation map. Pure.
func Classify(userID, candidateID string, rels map[string]*model.Friendship) string {
	f, ok := rels[candidateID]
	if !ok {
		return model.RelationNotFriend
	}
	switch f.Status {
	case model.FriendshipAccepted:
		return model.RelationFriends
	case model.FriendshipRequested:
		if f.RequesterID == userID {
			return model.RelationRequested
		}
		return model.RelationBeingRequested
	default:
		return model.RelationNotFriend
	}
}

// ClassifyRelationship is the single-pair form of Classify.
func ClassifyRelationship(ctx context.Context, userID, candidateID string) (string, error) {
	f, err := findPair(ctx, userID, candidateID)
	if err != nil {
		return "", err
	}
	if f == nil {
		return model.RelationNotFriend, nil
	}
	return Classify(userID, candidateID, map[string]*model.Friendship{candidateID: f}), nil
}

func findTouching(ctx context.Context, userID string, extra bson.M) ([]model.Friendship, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"requester_id": userID},
			{"addressee_id": userID},
		},
	}
	for k, v := range extra {
		filter[k] = v
	}
	cur, err := (&model.Friendship{}).Collection().Find(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return decodeFriendships(ctx, cur)
}

func decodeFriendships(ctx context.Context, cur *mongo.Cursor) ([]model.Friendship, error) {
	defer cur.Close(ctx)
	var rels []model.Friendship
	if err := cur.All(ctx, &rels); err != nil {
		return nil, errs.Wrap(err)
	}
	return rels, nil
}

// resolveOthers maps relationships to the other party's directory profile.
// Parties missing from the directory cache are skipped.
func resolveOthers(ctx context.Context, userID string, rels []model.Friendship) ([]model.Profile, error) {
	otherIDs := make([]string, 0, len(rels))
	for i := range rels {
		otherIDs = append(otherIDs, rels[i].Other(userID))
	}
	users, err := GetUsers(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	profiles := make([]model.Profile, 0, len(otherIDs))
	for _, id := range otherIDs {
		if u, ok := users[id]; ok {
			profiles = append(profiles, u.Profile())
		}
	}
	return profiles, nil
}
