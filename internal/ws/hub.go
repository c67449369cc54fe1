package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub multiplexes connections onto named rooms and tracks a per-user
// connection refcount for presence. All durable state lives elsewhere; the
// hub is purely in-memory.
//
// When a redis client is supplied, room and global broadcasts are mirrored
// onto a pub/sub channel so other instances deliver to their local
// subscribers too. Origin-connection exclusion is local by definition: the
// excluded connection can only live on the publishing instance.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]*Client            // conn id -> client
	rooms     map[string]map[string]*Client // room -> conn id -> client
	userConns map[string]int                // uid -> live connection count

	instance string
	rdb      *redis.Client
	channel  string
	log      *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log *zap.SugaredLogger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		conns:     make(map[string]*Client),
		rooms:     make(map[string]map[string]*Client),
		userConns: make(map[string]int),
		instance:  uuid.NewString(),
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// EnableRelay attaches cross-instance fan-out and starts the subscriber.
func (h *Hub) EnableRelay(rdb *redis.Client, channel string) {
	h.rdb = rdb
	h.channel = channel
	go h.subscribeLoop()
}

// Register adds a connection and reports whether it is the user's first.
func (h *Hub) Register(c *Client) (first bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
	h.userConns[c.UID]++
	return h.userConns[c.UID] == 1
}

// Unregister drops a connection, leaving all its rooms, and reports whether
// it was the user's last. Safe to call more than once per connection.
func (h *Hub) Unregister(c *Client) (last bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID]; !ok {
		return false
	}
	delete(h.conns, c.ID)
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.userConns[c.UID]--
	if h.userConns[c.UID] <= 0 {
		delete(h.userConns, c.UID)
		return true
	}
	return false
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][c.ID] = c
	c.rooms[room] = true
}

// BroadcastRoom delivers to every connection subscribed to the room.
func (h *Hub) BroadcastRoom(room string, payload any) {
	h.broadcastRoom(room, "", payload, true)
}

// BroadcastRoomExcept delivers to the room, skipping the origin connection.
func (h *Hub) BroadcastRoomExcept(room, exceptConnID string, payload any) {
	h.broadcastRoom(room, exceptConnID, payload, true)
}

func (h *Hub) broadcastRoom(room, except string, payload any, relay bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for id, c := range h.rooms[room] {
		if id == except {
			continue
		}
		members = append(members, c)
	}
	h.mu.RUnlock()
	for _, c := range members {
		c.enqueue(data)
	}
	if relay {
		h.publish(relayFrame{Origin: h.instance, Room: room, Data: data})
	}
}

// BroadcastAll delivers to every live connection, room membership aside.
func (h *Hub) BroadcastAll(payload any) {
	h.broadcastAll(payload, true)
}

func (h *Hub) broadcastAll(payload any, relay bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	all := make([]*Client, 0, len(h.conns))
	for _, c := range h.conns {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.enqueue(data)
	}
	if relay {
		h.publish(relayFrame{Origin: h.instance, Global: true, Data: data})
	}
}

// BroadcastUser delivers to every connection of one user on this instance.
// Used for lightweight recipient-directed hints, not for room traffic.
func (h *Hub) BroadcastUser(uid string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, 2)
	for _, c := range h.conns {
		if c.UID == uid {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.enqueue(data)
	}
}

// online reports whether the user has at least one live connection here.
func (h *Hub) online(uid string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userConns[uid] > 0
}

func (h *Hub) Shutdown() {
	h.cancel()
}

type relayFrame struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room,omitempty"`
	Global bool            `json:"global,omitempty"`
	Data   json.RawMessage `json:"data"`
}

func (h *Hub) publish(f relayFrame) {
	if h.rdb == nil {
		return
	}
	b, _ := json.Marshal(f)
	if err := h.rdb.Publish(h.ctx, h.channel, b).Err(); err != nil {
		h.log.Warnw("relay publish failed", "err", err)
	}
}

func (h *Hub) subscribeLoop() {
	pubsub := h.rdb.Subscribe(h.ctx, h.channel)
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				h.log.Warn("relay subscription closed")
				return
			}
			var f relayFrame
			if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
				continue
			}
			if f.Origin == h.instance {
				continue
			}
			var payload json.RawMessage = f.Data
			if f.Global {
				h.broadcastAll(payload, false)
			} else {
				h.broadcastRoom(f.Room, "", payload, false)
			}
		}
	}
}
