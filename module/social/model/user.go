package model

import (
	"context"
	"time"

	mgo "github.com/chiendz11/Badminton-manager-microservices-sub002/service/mgo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Role values mirrored from the identity service.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the local read replica of an identity record. It is created and
// updated only by inbound identity events, never by user-facing writes,
// and is not the source of truth for identity attributes.
type User struct {
	UserID    string `bson:"user_id"`              // external key, unique
	Name      string `bson:"name"`                 // display name
	Username  string `bson:"username"`             // handle
	AvatarURL string `bson:"avatar_url,omitempty"` // avatar, optional
	Role      string `bson:"role,omitempty"`

	// Version is the event version that produced this state. Events older
	// than the stored version are ignored (out-of-order redelivery guard).
	Version int64 `bson:"version"`

	CreateTime time.Time `bson:"create_time"`
	UpdateTime time.Time `bson:"update_time"`
}

// Profile is the projection handed out to friend/conversation views.
type Profile struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Online    bool   `json:"online,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{
		UserID:    u.UserID,
		Name:      u.Name,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

func (u *User) GetTableName() string {
	return "users"
}

func (u *User) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(u.GetTableName())
}

// EnsureUserIndexes creates the unique user_id index.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection((&User{}).GetTableName()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
