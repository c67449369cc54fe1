package chat

import "github.com/acertax/connect/internal/models"

// Outbound event types on the websocket surface.
const (
	EvPresenceUpdate = "presence_update"
	EvNewMessage     = "new_message"
	EvTypingUpdate   = "typing_update"
	EvJoinedRoom     = "joined_room"
	EvInboxUpdate    = "inbox_update"
)

type PresenceEvent struct {
	Type   string `json:"type"`
	UID    string `json:"uid"`
	Online bool   `json:"online"`
}

type MessageEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

type TypingEvent struct {
	Type     string `json:"type"`
	Kind     string `json:"kind"` // dm | group
	Room     string `json:"room"`
	GroupID  string `json:"group_id,omitempty"`
	FromUID  string `json:"from_uid"`
	IsTyping bool   `json:"is_typing"`
}

type JoinedRoomEvent struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type InboxSignal struct {
	Type string `json:"type"`
}
