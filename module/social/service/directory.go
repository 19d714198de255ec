package service

import (
	"context"
	"time"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/logger"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserEvent is the payload of user.created / user.updated identity events.
// For updated events any subset of the profile fields may be present.
type UserEvent struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Role      string `json:"role"`

	// Version is the producer's monotonic per-user version. Zero means the
	// producer does not version its events.
	Version int64 `json:"version"`
}

// normVersion is the version a created event establishes; unversioned
// producers get a floor of 1 so the stored field is never zero.
func (e *UserEvent) normVersion() int64 {
	if e.Version <= 0 {
		return 1
	}
	return e.Version
}

// createdFilter only matches state older than the event, so a redelivered
// or out-of-order created event cannot revert a newer record.
func createdFilter(evt *UserEvent) bson.M {
	return bson.M{
		"user_id": evt.UserID,
		"version": bson.M{"$lt": evt.normVersion()},
	}
}

func createdUpdate(evt *UserEvent, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"name":        evt.Name,
			"username":    evt.Username,
			"avatar_url":  evt.AvatarURL,
			"role":        evt.Role,
			"version":     evt.normVersion(),
			"update_time": now,
		},
		"$setOnInsert": bson.M{
			"create_time": now,
		},
	}
}

// updatedFilter guards versioned events against stale application. An
// event without a version always matches its record: partial updates from
// unversioned producers cannot be ordered, so they are applied as-is.
func updatedFilter(evt *UserEvent) bson.M {
	f := bson.M{"user_id": evt.UserID}
	if evt.Version > 0 {
		f["version"] = bson.M{"$lt": evt.Version}
	}
	return f
}

// updatedSet is the $set document: the non-empty profile fields plus
// bookkeeping. Unversioned events leave the stored version untouched.
func updatedSet(evt *UserEvent, now time.Time) bson.M {
	set := BuildUserPatch(evt)
	if evt.Version > 0 {
		set["version"] = evt.Version
	}
	set["update_time"] = now
	return set
}

// ApplyUserCreated upserts the directory record. A stale upsert misses the
// version filter, collides with the unique user_id index and is dropped.
func ApplyUserCreated(ctx context.Context, evt *UserEvent) error {
	if evt == nil || evt.UserID == "" {
		return errs.ErrArgs.WrapMsg("user.created missing userId")
	}
	now := time.Now()
	_, err := (&model.User{}).Collection().UpdateOne(ctx,
		createdFilter(evt), createdUpdate(evt, now), options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.Infof("[directory] stale user.created ignored user=%s version=%d", evt.UserID, evt.normVersion())
			return nil
		}
		return errs.WrapMsg(err, "apply user.created", "userID", evt.UserID)
	}
	return nil
}

// ApplyUserUpdated merges the non-empty payload fields into the stored
// record. An absent target is a tolerated race ("update before create"),
// logged and dropped; so is a versioned event older than the stored state.
func ApplyUserUpdated(ctx context.Context, evt *UserEvent) error {
	if evt == nil || evt.UserID == "" {
		return errs.ErrArgs.WrapMsg("user.updated missing userId")
	}
	if len(BuildUserPatch(evt)) == 0 {
		logger.Infof("[directory] empty user.updated ignored user=%s", evt.UserID)
		return nil
	}
	res, err := (&model.User{}).Collection().UpdateOne(ctx,
		updatedFilter(evt), bson.M{"$set": updatedSet(evt, time.Now())})
	if err != nil {
		return errs.WrapMsg(err, "apply user.updated", "userID", evt.UserID)
	}
	if res.MatchedCount == 0 {
		logger.Infof("[directory] user.updated no-op (absent or stale) user=%s version=%d", evt.UserID, evt.Version)
	}
	return nil
}

// BuildUserPatch keeps only the fields present and non-empty in the event;
// omitted fields are left untouched in the stored record.
func BuildUserPatch(evt *UserEvent) bson.M {
	patch := bson.M{}
	if evt.Name != "" {
		patch["name"] = evt.Name
	}
	if evt.Username != "" {
		patch["username"] = evt.Username
	}
	if evt.AvatarURL != "" {
		patch["avatar_url"] = evt.AvatarURL
	}
	if evt.Role != "" {
		patch["role"] = evt.Role
	}
	return patch
}

// GetUser loads one directory record.
func GetUser(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := (&model.User{}).Collection().FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrNotFound.WrapMsg("user not in directory", "userID", userID)
		}
		return nil, errs.Wrap(err)
	}
	return &u, nil
}

// GetUsers loads a batch of directory records keyed by user id. Missing
// ids are simply absent from the result.
func GetUsers(ctx context.Context, userIDs []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := (&model.User{}).Collection().Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u model.User
		if err := cur.Decode(&u); err != nil {
			return nil, errs.Wrap(err)
		}
		u2 := u
		out[u.UserID] = &u2
	}
	return out, errs.Wrap(cur.Err())
}
