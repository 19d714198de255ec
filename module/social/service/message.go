package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/logger"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/service/natsx"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BizMessageCreated is the outbound event published after every saved
// message, for notification and analytics consumers.
const BizMessageCreated = "social.message.created"

// BuildMessageEvent is the wire payload of BizMessageCreated.
func BuildMessageEvent(msg *model.Message) []byte {
	b, _ := json.Marshal(map[string]any{
		"messageId":      msg.ID,
		"conversationId": msg.ConversationID,
		"senderId":       msg.SenderID,
		"content":        msg.Content,
		"createdAt":      msg.CreatedAt.UnixMilli(),
	})
	return b
}

// AppendMessage validates the conversation and the sender's membership,
// writes the message, then bumps the conversation's recency. The two
// writes are independently committed; a failure after the insert leaves
// the recency stale, which is acceptable and self-heals on the next append.
func AppendMessage(ctx context.Context, senderID, conversationID, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errs.ErrArgs.WrapMsg("empty message content")
	}
	conv, err := GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasMember(senderID) {
		return nil, errs.ErrNotConversationMember.WrapMsg("sender not in conversation",
			"senderID", senderID, "conversationID", conversationID)
	}

	msg := &model.Message{
		ID:             ids.GenerateString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if _, err := msg.Collection().InsertOne(ctx, msg); err != nil {
		return nil, errs.WrapMsg(err, "insert message")
	}

	if err := TouchActivity(ctx, conversationID, &model.LastMessage{
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		// message is durable; stale ordering only
		logger.Warnf("[message] touch activity failed conversation=%s: %v", conversationID, err)
	}

	// best-effort fanout to downstream consumers; the message id doubles
	// as the dedup key
	if err := natsx.PublishOnce(ctx, BizMessageCreated, BuildMessageEvent(msg), nil, msg.ID); err != nil {
		logger.Warnf("[message] publish %s failed message=%s: %v", BizMessageCreated, msg.ID, err)
	}
	return msg, nil
}

// ListMessages returns the full history of a conversation, oldest first.
func ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	cur, err := (&model.Message{}).Collection().Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer cur.Close(ctx)

	var msgs []model.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, errs.Wrap(err)
	}
	return msgs, nil
}
