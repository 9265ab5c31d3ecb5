package realtime

import (
	"encoding/json"
)

// Inbound events.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventMarkRead    = "mark_read"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
	EventRegister    = "register"
)

// Outbound events.
const (
	EventRoomJoined        = "room_joined"
	EventNewMessage        = "new_message"
	EventMessagesRead      = "messages_read"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventRegistered        = "registered"
	EventError             = "error"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func encode(event string, data any) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data})
}

type bookingRef struct {
	BookingID string `json:"bookingId"`
}

type sendMessageRequest struct {
	BookingID string `json:"bookingId"`
	Content   string `json:"content"`
}

type roomJoined struct {
	BookingID string `json:"bookingId"`
	Messages  any    `json:"messages"`
	Total     int64  `json:"total"`
}

type messagesRead struct {
	ByUserID  string `json:"byUserId"`
	BookingID string `json:"bookingId"`
}

type typing struct {
	UserID    string `json:"userId"`
	BookingID string `json:"bookingId"`
}

type errorPayload struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// registerUserID accepts either a bare JSON string or {"userId": "..."}.
func registerUserID(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var obj struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj.UserID
	}
	return ""
}

func roomName(bookingID string) string {
	return "booking:" + bookingID
}
