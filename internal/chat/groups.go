package chat

import (
	"context"
	"sort"
	"strings"

	"github.com/acertax/connect/internal/models"
	"github.com/acertax/connect/internal/store"
	"github.com/acertax/connect/internal/thread"
)

// CreateGroup creates a group. The creator is always a member; the member
// list is deduplicated and sorted.
func (s *Service) CreateGroup(ctx context.Context, creator, name string, members []string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	set := map[string]bool{creator: true}
	for _, m := range members {
		if m != "" {
			set[m] = true
		}
	}
	uniq := make([]string, 0, len(set))
	for m := range set {
		uniq = append(uniq, m)
	}
	sort.Strings(uniq)

	g := &models.Group{Name: name, Members: uniq, CreatedBy: creator}
	if _, err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ListGroups returns the groups the user belongs to, name-sorted.
func (s *Service) ListGroups(ctx context.Context, uid string) ([]*models.Group, error) {
	groups, err := s.groups.ListForUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// GroupMember is a member profile as exposed on the group detail surface.
type GroupMember struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Online      bool   `json:"online"`
}

type GroupDetail struct {
	GroupID   string        `json:"group_id"`
	Name      string        `json:"name"`
	CreatedBy string        `json:"created_by"`
	Members   []GroupMember `json:"members"`
}

// GroupInfo returns the group with member profiles, online-first sorted.
// Only members may see it.
func (s *Service) GroupInfo(ctx context.Context, uid, groupID string) (*GroupDetail, error) {
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
	detail := &GroupDetail{GroupID: g.ID, Name: g.Name, CreatedBy: g.CreatedBy}
	for _, mid := range g.Members {
		gm := GroupMember{UID: mid, DisplayName: mid}
		if u, err := s.users.Get(ctx, mid); err == nil {
			gm.Email = u.Email
			gm.Online = u.Online
			if u.DisplayName != "" {
				gm.DisplayName = u.DisplayName
			} else if at := strings.IndexByte(u.Email, '@'); at > 0 {
				gm.DisplayName = u.Email[:at]
			}
		}
		detail.Members = append(detail.Members, gm)
	}
	sort.Slice(detail.Members, func(i, j int) bool {
		if detail.Members[i].Online != detail.Members[j].Online {
			return detail.Members[i].Online
		}
		return strings.ToLower(detail.Members[i].DisplayName) < strings.ToLower(detail.Members[j].DisplayName)
	})
	return detail, nil
}

// DeleteGroup hard-deletes a group. Only the creator or the configured
// admin may do so, and both must be members first. Unread counters for the
// group thread are cascaded away for every member; whether the persisted
// messages are purged is a deployment policy.
func (s *Service) DeleteGroup(ctx context.Context, uid, email, groupID string) error {
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
	if g.CreatedBy != uid && !s.isAdmin(email) {
		return ErrForbidden
	}
	if err := s.groups.Delete(ctx, groupID); err != nil {
		return err
	}
	tid := thread.GroupID(groupID)
	for _, m := range g.Members {
		if err := s.unread.Delete(ctx, m, tid); err != nil {
			s.log.Warnw("unread cascade failed", "uid", m, "thread", tid, "err", err)
		}
	}
	if s.opts.PurgeOnGroupDelete {
		if err := s.messages.PurgeGroup(ctx, groupID); err != nil {
			s.log.Warnw("group message purge failed", "group", groupID, "err", err)
		}
	}
	return nil
}
