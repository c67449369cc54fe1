package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acertax/connect/internal/models"
)

type sessionLoginReq struct {
	IDToken string `json:"id_token"`
}

// sessionLogin is the identity gate on the request path: verify the
// credential, enforce the domain, ensure the profile.
func (s *Server) sessionLogin(c *fiber.Ctx) error {
	var req sessionLoginReq
	if err := c.BodyParser(&req); err != nil || req.IDToken == "" {
		return fail(c, fiber.StatusBadRequest, codeInvalid)
	}
	id, err := s.verifier.Verify(req.IDToken)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, codeUnauthenticated)
	}
	u, err := s.svc.Authorize(c.Context(), id)
	if err != nil {
		return svcFail(c, err)
	}
	return ok(c, fiber.Map{"user": u})
}

// Sessions are stateless bearer tokens; logout is client-side discard.
func (s *Server) logout(c *fiber.Ctx) error {
	return ok(c, nil)
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	users, err := s.svc.ListUsers(c.Context())
	if err != nil {
		return svcFail(c, err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return ok(c, fiber.Map{"users": users})
}

func (s *Server) listGroups(c *fiber.Ctx) error {
	groups, err := s.svc.ListGroups(c.Context(), uid(c))
	if err != nil {
		return svcFail(c, err)
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	return ok(c, fiber.Map{"groups": groups})
}

type createGroupReq struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (s *Server) createGroup(c *fiber.Ctx) error {
	var req createGroupReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, codeInvalid)
	}
	g, err := s.svc.CreateGroup(c.Context(), uid(c), req.Name, req.Members)
	if err != nil {
		return svcFail(c, err)
	}
	return ok(c, fiber.Map{"group_id": g.ID})
}

func (s *Server) groupInfo(c *fiber.Ctx) error {
	detail, err := s.svc.GroupInfo(c.Context(), uid(c), c.Params("group_id"))
	if err != nil {
		return svcFail(c, err)
	}
	return ok(c, fiber.Map{"group": detail})
}

type deleteGroupReq struct {
	GroupID string `json:"group_id"`
}

func (s *Server) deleteGroup(c *fiber.Ctx) error {
	var req deleteGroupReq
	if err := c.BodyParser(&req); err != nil || req.GroupID == "" {
		return fail(c, fiber.StatusBadRequest, codeInvalid)
	}
	if err := s.svc.DeleteGroup(c.Context(), uid(c), email(c), req.GroupID); err != nil {
		return svcFail(c, err)
	}
	return ok(c, nil)
}

func (s *Server) historyDM(c *fiber.Ctx) error {
	msgs, err := s.svc.HistoryDirect(c.Context(), uid(c), c.Params("other_uid"))
	if err != nil {
		return svcFail(c, err)
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return ok(c, fiber.Map{"messages": msgs})
}

func (s *Server) historyGroup(c *fiber.Ctx) error {
	msgs, err := s.svc.HistoryGroup(c.Context(), uid(c), c.Params("group_id"))
	if err != nil {
		return svcFail(c, err)
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return ok(c, fiber.Map{"messages": msgs})
}

type deleteChatReq struct {
	Type     string `json:"type"` // dm | group
	OtherUID string `json:"other_uid"`
	GroupID  string `json:"group_id"`
}

func (s *Server) deleteChat(c *fiber.Ctx) error {
	var req deleteChatReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, codeInvalid)
	}
	switch req.Type {
	case models.KindDM:
		if err := s.svc.DeleteDirectChat(c.Context(), uid(c), req.OtherUID); err != nil {
			return svcFail(c, err)
		}
	case models.KindGroup:
		if err := s.svc.DeleteGroupChat(c.Context(), uid(c), req.GroupID); err != nil {
			return svcFail(c, err)
		}
	default:
		return fail(c, fiber.StatusBadRequest, codeInvalid)
	}
	return ok(c, nil)
}

func (s *Server) listUnread(c *fiber.Ctx) error {
	items, err := s.svc.ListUnread(c.Context(), uid(c))
	if err != nil {
		return svcFail(c, err)
	}
	if items == nil {
		items = []*models.UnreadCounter{}
	}
	return ok(c, fiber.Map{"items": items})
}

type markReadReq struct {
	ThreadID string `json:"thread_id"`
}

func (s *Server) markRead(c *fiber.Ctx) error {
	var req markReadReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, codeInvalid)
	}
	if err := s.svc.MarkRead(c.Context(), uid(c), req.ThreadID); err != nil {
		return svcFail(c, err)
	}
	return ok(c, nil)
}
