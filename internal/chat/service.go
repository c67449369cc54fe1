package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/acertax/connect/internal/auth"
	"github.com/acertax/connect/internal/models"
	"github.com/acertax/connect/internal/store"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Broadcaster is the real-time fan-out surface the service pushes events
// through; *ws.Hub implements it.
type Broadcaster interface {
	BroadcastRoom(room string, payload any)
	BroadcastRoomExcept(room, exceptConnID string, payload any)
	BroadcastAll(payload any)
	BroadcastUser(uid string, payload any)
}

// EventSink receives persisted messages best-effort; nil disables it.
type EventSink interface {
	PublishMessage(ctx context.Context, m *models.Message) error
}

type Options struct {
	CompanyDomain       string
	AdminEmail          string
	HistoryLimit        int64
	SoftDeleteBatchSize int
	PurgeOnGroupDelete  bool
}

type Service struct {
	users    store.UserStore
	groups   store.GroupStore
	messages store.MessageStore
	unread   store.UnreadStore
	bus      Broadcaster
	events   EventSink
	log      *zap.SugaredLogger
	opts     Options

	// server clock in ms epoch, swapped out by tests
	nowMillis func() int64
}

func NewService(users store.UserStore, groups store.GroupStore, messages store.MessageStore,
	unread store.UnreadStore, bus Broadcaster, events EventSink,
	log *zap.SugaredLogger, opts Options) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 200
	}
	if opts.SoftDeleteBatchSize <= 0 {
		opts.SoftDeleteBatchSize = 400
	}
	return &Service{
		users:     users,
		groups:    groups,
		messages:  messages,
		unread:    unread,
		bus:       bus,
		events:    events,
		log:       log,
		opts:      opts,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// Authorize is the identity gate: the credential has already been verified
// by the provider; here the domain is enforced and the profile ensured.
func (s *Service) Authorize(ctx context.Context, id auth.Identity) (*models.User, error) {
	if !auth.DomainAllowed(id.Email, s.opts.CompanyDomain) {
		return nil, ErrForbidden
	}
	if err := s.users.EnsureProfile(ctx, id.UID, id.Email); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, id.UID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// MarkOnline flips the durable presence flag and announces it. Callers
// invoke it only on the first connection of a user (the hub refcounts).
func (s *Service) MarkOnline(ctx context.Context, uid string) {
	if err := s.users.SetPresence(ctx, uid, true); err != nil {
		s.log.Warnw("presence write failed", "uid", uid, "err", err)
	}
	s.bus.BroadcastAll(PresenceEvent{Type: EvPresenceUpdate, UID: uid, Online: true})
}

// MarkOffline is the last-connection counterpart of MarkOnline.
func (s *Service) MarkOffline(ctx context.Context, uid string) {
	if err := s.users.SetPresence(ctx, uid, false); err != nil {
		s.log.Warnw("presence write failed", "uid", uid, "err", err)
	}
	s.bus.BroadcastAll(PresenceEvent{Type: EvPresenceUpdate, UID: uid, Online: false})
}

// ListUsers returns company profiles, online first, then by display name.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(all))
	for _, u := range all {
		if auth.DomainAllowed(u.Email, s.opts.CompanyDomain) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Online != out[j].Online {
			return out[i].Online
		}
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out, nil
}

func (s *Service) isAdmin(email string) bool {
	return s.opts.AdminEmail != "" && strings.EqualFold(email, s.opts.AdminEmail)
}
