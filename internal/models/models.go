package models

import "time"

const (
	RoleEmployee = "employee"

	KindDM    = "dm"
	KindGroup = "group"
)

// User is the durable profile document. Created on first successful
// authorization, merged on later writes so unspecified fields survive.
type User struct {
	UID         string    `bson:"_id,omitempty" json:"uid"`
	Email       string    `bson:"email" json:"email"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Role        string    `bson:"role" json:"role"`
	Online      bool      `bson:"online" json:"online"`
	LastSeen    time.Time `bson:"last_seen" json:"last_seen"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

type Group struct {
	ID        string    `bson:"_id,omitempty" json:"group_id"`
	Name      string    `bson:"name" json:"name"`
	Members   []string  `bson:"members" json:"members"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Message is append-only except for growth of DeletedFor. TS is the server
// clock in milliseconds since epoch for everything this core writes, but
// historical records carry ISO-8601 strings, so it stays loosely typed and
// is normalized through SortKey at read time.
type Message struct {
	ID         string   `bson:"_id,omitempty" json:"id,omitempty"`
	Type       string   `bson:"type" json:"type"`
	Room       string   `bson:"room" json:"room"`
	FromUID    string   `bson:"from_uid" json:"from_uid"`
	ToUID      string   `bson:"to_uid,omitempty" json:"to_uid,omitempty"`
	GroupID    string   `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Text       string   `bson:"text" json:"text"`
	TS         any      `bson:"ts" json:"ts"`
	DeletedFor []string `bson:"deleted_for" json:"deleted_for"`
}

// UnreadCounter keys on (UID, ThreadID); the document id is the composite
// UID|ThreadID so concurrent increments from different senders land on the
// same record.
type UnreadCounter struct {
	ID        string    `bson:"_id,omitempty" json:"-"`
	UID       string    `bson:"uid" json:"-"`
	ThreadID  string    `bson:"thread_id" json:"thread_id"`
	Type      string    `bson:"type" json:"type"`
	OtherUID  string    `bson:"other_uid,omitempty" json:"other_uid,omitempty"`
	GroupID   string    `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Count     int64     `bson:"count" json:"count"`
	UpdatedAt time.Time `bson:"updated_ts" json:"-"`
}

func CounterID(uid, threadID string) string {
	return uid + "|" + threadID
}
