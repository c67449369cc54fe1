package ws

// Envelope is the inbound wire format for websocket frames.
type Envelope struct {
	Type     string `json:"type"`
	OtherUID string `json:"other_uid,omitempty"`
	ToUID    string `json:"to_uid,omitempty"`
	GroupID  string `json:"group_id,omitempty"`
	Text     string `json:"text,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

// Inbound event types.
const (
	EvJoinDM      = "join_dm"
	EvJoinGroup   = "join_group"
	EvSendDM      = "send_dm"
	EvSendGroup   = "send_group"
	EvTypingDM    = "typing_dm"
	EvTypingGroup = "typing_group"
)
