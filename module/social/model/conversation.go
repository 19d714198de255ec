package model

import (
	"context"
	"time"

	mgo "github.com/chiendz11/Badminton-manager-microservices-sub002/service/mgo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ConversationPrivate = "private"
	ConversationGroup   = "group" // modeled, unused by current flows
)

// LastMessage is the denormalized snapshot shown in conversation lists.
type LastMessage struct {
	MessageID string    `bson:"message_id" json:"messageId"`
	SenderID  string    `bson:"sender_id" json:"senderId"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Conversation is a chat thread. Private conversations hold exactly two
// members and are unique per unordered member pair (pair_key index);
// creation conflicts mean someone else created it first, so refetch.
type Conversation struct {
	ID        string   `bson:"_id"`
	Type      string   `bson:"type"`
	MemberIDs []string `bson:"member_ids"`
	// PairKey is set for private conversations only.
	PairKey string `bson:"pair_key,omitempty"`

	LastMessage *LastMessage `bson:"last_message,omitempty"`

	CreateTime time.Time `bson:"create_time"`
	// UpdatedAt is the recency sort key; bumped on every message append.
	UpdatedAt time.Time `bson:"updated_at"`
}

// HasMember reports whether userID belongs to the conversation.
func (c *Conversation) HasMember(userID string) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) GetTableName() string {
	return "conversations"
}

func (c *Conversation) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

// EnsureConversationIndexes creates the pair uniqueness and membership
// indexes. pair_key is sparse so group conversations are exempt.
func EnsureConversationIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection((&Conversation{}).GetTableName())
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "member_ids", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	})
	return err
}
