package chat

import (
	"context"

	"github.com/acertax/connect/internal/models"
)

// ListUnread returns the user's unread counters.
func (s *Service) ListUnread(ctx context.Context, uid string) ([]*models.UnreadCounter, error) {
	return s.unread.List(ctx, uid)
}

// MarkRead resets the counter for one thread; the client acknowledges reads
// explicitly, receipt alone never clears a counter.
func (s *Service) MarkRead(ctx context.Context, uid, threadID string) error {
	if threadID == "" {
		return ErrValidation
	}
	return s.unread.Reset(ctx, uid, threadID)
}
