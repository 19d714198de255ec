package model

import (
	"context"
	"strings"
	"time"

	mgo "github.com/chiendz11/Badminton-manager-microservices-sub002/service/mgo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Friendship status lifecycle: created as requested, flipped to accepted by
// the addressee. Decline and removal delete the record outright; there is
// no declined terminal state.
const (
	FriendshipRequested = "requested"
	FriendshipAccepted  = "accepted"
)

// Relationship classifications derived from a stored record relative to a
// viewing user.
const (
	RelationNotFriend      = "not_friend"
	RelationFriends        = "friends"
	RelationRequested      = "requested"       // viewer sent the pending request
	RelationBeingRequested = "being_requested" // viewer received the pending request
)

// Friendship is one pairwise relationship record. At most one record exists
// per unordered user pair, enforced by the unique pair_key index.
type Friendship struct {
	ID          string `bson:"_id"`
	RequesterID string `bson:"requester_id"` // who sent the request
	AddresseeID string `bson:"addressee_id"` // who received it
	PairKey     string `bson:"pair_key"`     // normalized unordered pair, unique
	Status      string `bson:"status"`

	CreateTime time.Time `bson:"create_time"`
	UpdateTime time.Time `bson:"update_time"`
}

// PairKey builds the normalized key for an unordered user pair. Symmetric:
// PairKey(a,b) == PairKey(b,a).
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// Other returns the party that is not userID.
func (f *Friendship) Other(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

func (f *Friendship) GetTableName() string {
	return "friendships"
}

func (f *Friendship) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(f.GetTableName())
}

// EnsureFriendshipIndexes creates the unique pair index so duplicate
// requests in either direction are rejected structurally.
func EnsureFriendshipIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection((&Friendship{}).GetTableName())
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "addressee_id", Value: 1}, {Key: "status", Value: 1}},
		},
	})
	return err
}
