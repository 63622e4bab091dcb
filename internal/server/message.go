package server

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType names a wire message. Inbound and outbound share one envelope.
type MessageType string

// Client → engine.
const (
	MessageSubscribeTable   MessageType = "SUBSCRIBE_TABLE"
	MessageUnsubscribeTable MessageType = "UNSUBSCRIBE_TABLE"
	MessageSeatRequest      MessageType = "SEAT_REQUEST"
	MessageActionRequest    MessageType = "ACTION_REQUEST"
	MessageLeaveRequest     MessageType = "LEAVE_REQUEST"
	MessageStartGame        MessageType = "START_GAME"
	MessageAddBotRequest    MessageType = "ADD_BOT_REQUEST"
)

// Engine → client. Everything carrying cards is personalized per recipient.
const (
	MessageTableSnapshot    MessageType = "TABLE_SNAPSHOT"
	MessageTableStateUpdate MessageType = "TABLE_STATE_UPDATE"
	MessageGameStarting     MessageType = "GAME_STARTING"
	MessageHandStarted      MessageType = "HAND_STARTED"
	MessageTurnPrompt       MessageType = "TURN_PROMPT"
	MessageTurnChanged      MessageType = "TURN_CHANGED"
	MessageCommunityCards   MessageType = "COMMUNITY_CARDS"
	MessageHandResult       MessageType = "HAND_RESULT"
	MessageActionResult     MessageType = "ACTION_RESULT"
	MessageSeatResult       MessageType = "SEAT_RESULT"
	MessageLeaveResult      MessageType = "LEAVE_RESULT"
	MessageError            MessageType = "ERROR"
	MessageConnectionState  MessageType = "CONNECTION_STATE"
)

// Message is the JSON envelope on the WebSocket.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage wraps a payload in an envelope stamped now.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", messageType, err)
	}
	return &Message{Type: messageType, Data: raw, Timestamp: time.Now()}, nil
}

// mustMessage is NewMessage for payload types we own; a marshal failure on
// those is a programming error.
func mustMessage(messageType MessageType, data any) *Message {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		panic(err)
	}
	return msg
}
