package chat

import (
	"encoding/json"
	"time"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"
)

// Client -> server frame types.
const (
	FrameJoin  = "joinConversation"
	FrameLeave = "leaveConversation"
	FrameSend  = "sendMessage"
)

// Server -> client frame types.
const (
	FrameNewMessage = "newMessage"
	FrameError      = "error"
)

// Frame is the JSON envelope on the realtime channel.
type Frame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
	Content        string `json:"content,omitempty"`

	// server -> client only
	Message *model.Message `json:"message,omitempty"`
	Code    int            `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
	Ts      int64          `json:"ts,omitempty"`
}

func ParseFrameJSON(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errs.WrapMsg(err, "unmarshal frame")
	}
	if f.Type == "" {
		return nil, errs.New("frame missing type")
	}
	return &f, nil
}

// BuildNewMessage is the fanout payload broadcast to a conversation room.
func BuildNewMessage(msg *model.Message) []byte {
	b, _ := json.Marshal(&Frame{
		Type:    FrameNewMessage,
		Message: msg,
		Ts:      time.Now().UnixMilli(),
	})
	return b
}

// BuildError is sent back on the offending connection only.
func BuildError(err error) []byte {
	f := &Frame{
		Type: FrameError,
		Ts:   time.Now().UnixMilli(),
	}
	if codeErr := errs.Unwrap(err); codeErr != nil {
		f.Code = codeErr.Code
		f.Error = codeErr.Msg
	} else if err != nil {
		f.Error = err.Error()
	}
	b, _ := json.Marshal(f)
	return b
}
