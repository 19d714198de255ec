package service

import (
	"context"
	"time"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/logger"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/service/storage"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationView is a conversation annotated with resolved member
// profiles, and message history where requested.
type ConversationView struct {
	Conversation *model.Conversation `json:"conversation"`
	Members      []model.Profile     `json:"members"`
	Messages     []model.Message     `json:"messages,omitempty"`
}

// GetOrCreatePrivateConversation returns the single private conversation
// for the unordered pair, creating it if absent. The unique pair_key index
// turns the find-or-create race into a duplicate-key conflict, handled as
// "someone else created it first" with a refetch.
func GetOrCreatePrivateConversation(ctx context.Context, memberA, memberB string) (*model.Conversation, error) {
	if memberA == "" || memberB == "" || memberA == memberB {
		return nil, errs.ErrArgs.WrapMsg("two distinct members required")
	}
	pair := model.PairKey(memberA, memberB)

	existing, err := findPrivateByPair(ctx, pair)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	conv := &model.Conversation{
		ID:         ids.GenerateString(),
		Type:       model.ConversationPrivate,
		MemberIDs:  []string{memberA, memberB},
		PairKey:    pair,
		CreateTime: now,
		UpdatedAt:  now,
	}
	if _, err := conv.Collection().InsertOne(ctx, conv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			created, ferr := findPrivateByPair(ctx, pair)
			if ferr != nil {
				return nil, ferr
			}
			if created != nil {
				return created, nil
			}
		}
		return nil, errs.WrapMsg(err, "insert conversation", "pair", pair)
	}
	return conv, nil
}

func findPrivateByPair(ctx context.Context, pair string) (*model.Conversation, error) {
	var conv model.Conversation
	err := (&model.Conversation{}).Collection().FindOne(ctx, bson.M{
		"pair_key": pair,
		"type":     model.ConversationPrivate,
	}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, errs.Wrap(err)
	}
	return &conv, nil
}

// GetConversation loads one conversation by id.
func GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := (&model.Conversation{}).Collection().FindOne(ctx, bson.M{"_id": conversationID}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrConversationNotFound.WrapMsg("conversation not found", "conversationID", conversationID)
		}
		return nil, errs.Wrap(err)
	}
	return &conv, nil
}

// IsConversationMember reports whether userID belongs to the conversation.
func IsConversationMember(ctx context.Context, conversationID, userID string) (bool, error) {
	conv, err := GetConversation(ctx, conversationID)
	if err != nil {
		if errs.IsCode(err, errs.ErrConversationNotFound) {
			return false, nil
		}
		return false, err
	}
	return conv.HasMember(userID), nil
}

// GetConversationWithHistory returns the private conversation between the
// two users with resolved member profiles and the full chronological
// message history. No conversation yet is a well-defined empty view, not
// an error.
func GetConversationWithHistory(ctx context.Context, userID, otherUserID string) (*ConversationView, error) {
	conv, err := findPrivateByPair(ctx, model.PairKey(userID, otherUserID))
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return &ConversationView{}, nil
	}
	members, err := resolveMembers(ctx, conv.MemberIDs)
	if err != nil {
		return nil, err
	}
	msgs, err := ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return &ConversationView{Conversation: conv, Members: members, Messages: msgs}, nil
}

// ListConversationsForUser returns every conversation userID belongs to,
// most recently active first, with resolved member profiles.
func ListConversationsForUser(ctx context.Context, userID string) ([]ConversationView, error) {
	cur, err := (&model.Conversation{}).Collection().Find(ctx,
		bson.M{"member_ids": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}),
	)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer cur.Close(ctx)

	var convs []model.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, errs.Wrap(err)
	}

	views := make([]ConversationView, 0, len(convs))
	for i := range convs {
		members, err := resolveMembers(ctx, convs[i].MemberIDs)
		if err != nil {
			return nil, err
		}
		views = append(views, ConversationView{Conversation: &convs[i], Members: members})
	}
	return views, nil
}

// TouchActivity bumps the recency sort key and stores the last-message
// snapshot. Called on every message append, as a write separate from the
// message itself.
func TouchActivity(ctx context.Context, conversationID string, last *model.LastMessage) error {
	set := bson.M{"updated_at": time.Now()}
	if last != nil {
		set["last_message"] = last
	}
	_, err := (&model.Conversation{}).Collection().UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": set},
	)
	if err != nil {
		return errs.WrapMsg(err, "touch conversation", "conversationID", conversationID)
	}
	return nil
}

// resolveMembers joins member ids against the directory cache and decorates
// them with best-effort presence flags.
func resolveMembers(ctx context.Context, memberIDs []string) ([]model.Profile, error) {
	users, err := GetUsers(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	profiles := make([]model.Profile, 0, len(memberIDs))
	resolved := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if u, ok := users[id]; ok {
			profiles = append(profiles, u.Profile())
			resolved = append(resolved, id)
		}
	}
	online, err := storage.PresenceLookupMany(ctx, resolved)
	if err != nil {
		// presence is decoration, never fail the view over it
		logger.Warnf("[conversation] presence lookup failed: %v", err)
		return profiles, nil
	}
	for i := range profiles {
		profiles[i].Online = online[profiles[i].UserID]
	}
	return profiles, nil
}
