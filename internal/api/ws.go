package api

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/acertax/connect/internal/chat"
	"github.com/acertax/connect/internal/thread"
	"github.com/acertax/connect/internal/ws"
)

const eventTimeout = 5 * time.Second

// handleWS authorizes the connection from its token query param, runs the
// pumps, and keeps presence in step with the hub's refcount. A rejected
// credential closes the socket immediately.
func (s *Server) handleWS(conn *websocket.Conn) {
	token := conn.Query("token")
	id, err := s.verifier.Verify(token)
	if err != nil {
		_ = conn.Close()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	_, err = s.svc.Authorize(ctx, id)
	cancel()
	if err != nil {
		_ = conn.Close()
		return
	}

	client := ws.NewClient(conn, id.UID, s.cfg.Chat.RateLimitPerSec)
	if first := s.hub.Register(client); first {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		s.svc.MarkOnline(ctx, id.UID)
		cancel()
	}
	defer func() {
		if last := s.hub.Unregister(client); last {
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			s.svc.MarkOffline(ctx, id.UID)
			cancel()
		}
	}()

	go client.WritePump()
	client.ReadPump(s.dispatch)
}

// dispatch routes one inbound envelope. Event-path failures are dropped
// without an error channel; a single bad event never tears down the
// connection.
func (s *Server) dispatch(c *ws.Client, env ws.Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch env.Type {
	case ws.EvJoinDM:
		if env.OtherUID == "" {
			return
		}
		room := thread.DirectID(c.UID, env.OtherUID)
		s.hub.Join(c, room)
		c.Send(chat.JoinedRoomEvent{Type: chat.EvJoinedRoom, Room: room})

	case ws.EvJoinGroup:
		if env.GroupID == "" {
			return
		}
		// membership is enforced at send/read time, not at join time
		room := thread.GroupID(env.GroupID)
		s.hub.Join(c, room)
		c.Send(chat.JoinedRoomEvent{Type: chat.EvJoinedRoom, Room: room})

	case ws.EvSendDM:
		if _, err := s.svc.SendDirect(ctx, c.UID, env.ToUID, env.Text); err != nil {
			s.log.Debugw("dm dropped", "from", c.UID, "err", err)
		}

	case ws.EvSendGroup:
		if _, err := s.svc.SendGroup(ctx, c.UID, env.GroupID, env.Text); err != nil {
			s.log.Debugw("group send dropped", "from", c.UID, "group", env.GroupID, "err", err)
		}

	case ws.EvTypingDM:
		s.svc.TypingDirect(c.ID, c.UID, env.OtherUID, env.IsTyping)

	case ws.EvTypingGroup:
		s.svc.TypingGroup(ctx, c.ID, c.UID, env.GroupID, env.IsTyping)

	default:
		// unknown: ignore
	}
}
