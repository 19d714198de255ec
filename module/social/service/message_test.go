package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
)

func TestBuildMessageEvent(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msg := &model.Message{
		ID:             "m1",
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "hello",
		CreatedAt:      created,
	}

	var payload map[string]any
	require.NoError(t, json.Unmarshal(BuildMessageEvent(msg), &payload))

	assert.Equal(t, "m1", payload["messageId"])
	assert.Equal(t, "c1", payload["conversationId"])
	assert.Equal(t, "u1", payload["senderId"])
	assert.Equal(t, "hello", payload["content"])
	assert.Equal(t, float64(created.UnixMilli()), payload["createdAt"])
}
