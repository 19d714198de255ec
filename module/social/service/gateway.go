package service

import (
	"context"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
)

// ChatStore adapts the message and conversation stores to the realtime
// gateway's Store interface.
type ChatStore struct{}

func (ChatStore) Append(ctx context.Context, senderID, conversationID, content string) (*model.Message, error) {
	return AppendMessage(ctx, senderID, conversationID, content)
}

func (ChatStore) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	return IsConversationMember(ctx, conversationID, userID)
}
