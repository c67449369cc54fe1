package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/acertax/connect/internal/auth"
	"github.com/acertax/connect/internal/chat"
	"github.com/acertax/connect/internal/config"
	"github.com/acertax/connect/internal/ws"
)

type Server struct {
	svc      *chat.Service
	hub      *ws.Hub
	verifier auth.Verifier
	cfg      *config.Config
	log      *zap.SugaredLogger
}

// NewServer wires the REST surface and the websocket endpoint onto one
// fiber app.
func NewServer(svc *chat.Service, hub *ws.Hub, verifier auth.Verifier, cfg *config.Config, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New()
	app.Use(fiberlogger.New())

	s := &Server{svc: svc, hub: hub, verifier: verifier, cfg: cfg, log: log}

	app.Post("/session_login", s.sessionLogin)
	app.Post("/logout", s.logout)

	api := app.Group("/api", s.requireAuth)
	api.Get("/users", s.listUsers)
	api.Get("/groups", s.listGroups)
	api.Post("/create_group", s.createGroup)
	api.Get("/group/:group_id", s.groupInfo)
	api.Post("/delete_group", s.deleteGroup)
	api.Get("/history/dm/:other_uid", s.historyDM)
	api.Get("/history/group/:group_id", s.historyGroup)
	api.Post("/delete_chat", s.deleteChat)
	api.Get("/unread", s.listUnread)
	api.Post("/mark_read", s.markRead)

	app.Get("/ws", websocket.New(s.handleWS))

	return app
}

// requireAuth verifies the bearer credential and pins the caller identity
// on the request context. Verification failures terminate the request; no
// retries.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	h := c.Get("Authorization")
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return fail(c, fiber.StatusUnauthorized, codeUnauthenticated)
	}
	id, err := s.verifier.Verify(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, codeUnauthenticated)
	}
	if !auth.DomainAllowed(id.Email, s.cfg.Chat.CompanyDomain) {
		return fail(c, fiber.StatusForbidden, codeForbidden)
	}
	c.Locals("uid", id.UID)
	c.Locals("email", id.Email)
	return c.Next()
}

func uid(c *fiber.Ctx) string {
	v, _ := c.Locals("uid").(string)
	return v
}

func email(c *fiber.Ctx) string {
	v, _ := c.Locals("email").(string)
	return v
}
