package chat

import (
	"context"
	"strings"

	"github.com/acertax/connect/internal/models"
	"github.com/acertax/connect/internal/store"
	"github.com/acertax/connect/internal/thread"
)

// SendDirect persists a direct message, bumps the recipient's unread
// counter regardless of their presence, and fans out to the room.
// Persistence is the durability guarantee; fan-out is best effort.
func (s *Service) SendDirect(ctx context.Context, fromUID, toUID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || toUID == "" {
		return nil, ErrValidation
	}
	room := thread.DirectID(fromUID, toUID)
	msg := &models.Message{
		Type:       models.KindDM,
		Room:       room,
		FromUID:    fromUID,
		ToUID:      toUID,
		Text:       text,
		TS:         s.nowMillis(),
		DeletedFor: []string{},
	}
	if _, err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.unread.Increment(ctx, &models.UnreadCounter{
		UID:      toUID,
		ThreadID: room,
		Type:     models.KindDM,
		OtherUID: fromUID,
	}); err != nil {
		s.log.Warnw("unread increment failed", "uid", toUID, "thread", room, "err", err)
	}
	s.bus.BroadcastRoom(room, MessageEvent{Type: EvNewMessage, Message: msg})
	s.bus.BroadcastUser(toUID, InboxSignal{Type: EvInboxUpdate})
	s.publishEvent(ctx, msg)
	return msg, nil
}

// SendGroup is the group variant: the sender must currently be a member,
// and every other member's unread counter is bumped. A missing group or a
// non-member sender drops the send (callers on the event path stay silent).
func (s *Service) SendGroup(ctx context.Context, fromUID, groupID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || groupID == "" {
		return nil, ErrValidation
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !contains(g.Members, fromUID) {
		return nil, ErrForbidden
	}
	room := thread.GroupID(groupID)
	msg := &models.Message{
		Type:       models.KindGroup,
		Room:       room,
		FromUID:    fromUID,
		GroupID:    groupID,
		Text:       text,
		TS:         s.nowMillis(),
		DeletedFor: []string{},
	}
	if _, err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	for _, m := range g.Members {
		if m == fromUID {
			continue
		}
		if err := s.unread.Increment(ctx, &models.UnreadCounter{
			UID:      m,
			ThreadID: room,
			Type:     models.KindGroup,
			GroupID:  groupID,
		}); err != nil {
			s.log.Warnw("unread increment failed", "uid", m, "thread", room, "err", err)
		}
		s.bus.BroadcastUser(m, InboxSignal{Type: EvInboxUpdate})
	}
	s.bus.BroadcastRoom(room, MessageEvent{Type: EvNewMessage, Message: msg})
	s.publishEvent(ctx, msg)
	return msg, nil
}

func (s *Service) publishEvent(ctx context.Context, msg *models.Message) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishMessage(ctx, msg); err != nil {
		s.log.Warnw("event publish failed", "err", err)
	}
}

// TypingDirect emits an ephemeral typing signal to the direct room,
// excluding the originating connection. Nothing is persisted.
func (s *Service) TypingDirect(connID, fromUID, otherUID string, isTyping bool) {
	if otherUID == "" {
		return
	}
	room := thread.DirectID(fromUID, otherUID)
	s.bus.BroadcastRoomExcept(room, connID, TypingEvent{
		Type: EvTypingUpdate, Kind: models.KindDM, Room: room,
		FromUID: fromUID, IsTyping: isTyping,
	})
}

// TypingGroup re-validates membership exactly like SendGroup and drops
// silently on failure.
func (s *Service) TypingGroup(ctx context.Context, connID, fromUID, groupID string, isTyping bool) {
	if groupID == "" {
		return
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil || !contains(g.Members, fromUID) {
		return
	}
	room := thread.GroupID(groupID)
	s.bus.BroadcastRoomExcept(room, connID, TypingEvent{
		Type: EvTypingUpdate, Kind: models.KindGroup, Room: room, GroupID: groupID,
		FromUID: fromUID, IsTyping: isTyping,
	})
}

// HistoryDirect materializes the requester's view of a direct thread.
func (s *Service) HistoryDirect(ctx context.Context, uid, otherUID string) ([]*models.Message, error) {
	if otherUID == "" {
		return nil, ErrValidation
	}
	room := thread.DirectID(uid, otherUID)
	return s.messages.History(ctx, uid, store.MessageFilter{Room: room}, s.opts.HistoryLimit)
}

// HistoryGroup checks membership before materializing the group thread.
func (s *Service) HistoryGroup(ctx context.Context, uid, groupID string) ([]*models.Message, error) {
	if groupID == "" {
		return nil, ErrValidation
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !contains(g.Members, uid) {
		return nil, ErrForbidden
	}
	return s.messages.History(ctx, uid, store.MessageFilter{GroupID: groupID}, s.opts.HistoryLimit)
}

// DeleteDirectChat soft-deletes the requester's view of a direct thread.
// The counterpart's view is untouched.
func (s *Service) DeleteDirectChat(ctx context.Context, uid, otherUID string) error {
	if otherUID == "" {
		return ErrValidation
	}
	room := thread.DirectID(uid, otherUID)
	return s.messages.SoftDelete(ctx, uid, store.MessageFilter{Room: room}, s.opts.SoftDeleteBatchSize)
}

// DeleteGroupChat soft-deletes the requester's view of a group thread;
// membership is required.
func (s *Service) DeleteGroupChat(ctx context.Context, uid, groupID string) error {
	if groupID == "" {
		return ErrValidation
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		if err == store.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	if !contains(g.Members, uid) {
		return ErrForbidden
	}
	return s.messages.SoftDelete(ctx, uid, store.MessageFilter{GroupID: groupID}, s.opts.SoftDeleteBatchSize)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
