package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mindwell-labs/mindwell/internal/solve"
	"github.com/mindwell-labs/mindwell/internal/store"
)

// SessionsHandler owns the Solve session routes: session lifecycle, chat
// history, profile introspection, and the message route that drives the
// orchestrator.
type SessionsHandler struct {
	Store   *store.Store
	Orch    *solve.Orchestrator
	Limiter *RateLimiter
}

func (h *SessionsHandler) Register(g *echo.Group, authMW echo.MiddlewareFunc) {
	g.Use(authMW)
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.archive)
	g.GET("/:id/messages", h.messages)
	g.GET("/:id/profile", h.profile)
	g.POST("/:id/messages", h.postMessage)
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	raw, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func sessionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func (h *SessionsHandler) create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New conversation"
	}
	sess, err := h.Store.CreateSession(c.Request().Context(), userID, title)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *SessionsHandler) list(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	sessions, err := h.Store.ListSessions(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	return c.JSON(http.StatusOK, sessions)
}

func (h *SessionsHandler) get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	sess, err := h.Store.GetSession(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionsHandler) archive(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	if err := h.Store.ArchiveSession(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionsHandler) messages(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	if _, err := h.Store.GetSession(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	msgs, err := h.Store.ListChatMessages(c.Request().Context(), id, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if msgs == nil {
		msgs = []store.ChatMessage{}
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *SessionsHandler) profile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	if _, err := h.Store.GetSession(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	rec, err := h.Store.GetProfile(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "no profile yet for this session")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ProfileResponse{
		SessionID:     rec.SessionID.String(),
		SchemaVersion: rec.SchemaVersion,
		Profile:       solve.LoadProfile(rec),
	})
}

func (h *SessionsHandler) postMessage(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	sess, err := h.Store.GetSession(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if sess.Status != store.SessionStatusActive {
		return echo.NewHTTPError(http.StatusConflict, "session is archived")
	}

	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	if ok, _ := h.Limiter.Allow(ctx, userID.String()); !ok {
		rateLimitedTotal.Inc()
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many messages, slow down")
	}

	decision, err := h.Orch.HandleSolveMessage(ctx, sess.ID, userID, req.Content, solve.SolveStep(sess.CurrentStep))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	solveTurnsTotal.WithLabelValues(string(decision.PrimaryAgent)).Inc()
	if decision.Audit.HasFlag(solve.FlagCrisis) {
		crisisBlocksTotal.Inc()
	}

	// Only the sanitized form of the user's message is persisted.
	if _, err := h.Store.InsertChatMessage(ctx, sess.ID, store.RoleUser, decision.Audit.SanitizedUserInput, sess.CurrentStep); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	reply, err := h.Store.InsertChatMessage(ctx, sess.ID, store.RoleAssistant, decision.ResponseText, string(decision.NextStep))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if string(decision.NextStep) != sess.CurrentStep {
		if err := h.Store.UpdateSessionStep(ctx, sess.ID, string(decision.NextStep)); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		stepTransitionsTotal.WithLabelValues(sess.CurrentStep, string(decision.NextStep)).Inc()
		sess.CurrentStep = string(decision.NextStep)
	}

	resp := PostMessageResponse{
		Session:      sess,
		Reply:        reply,
		PrimaryAgent: decision.PrimaryAgent,
		Blocked:      !decision.Audit.Allowed,
		BlockReason:  decision.Audit.Reason,
	}
	if decision.Audit.HasFlag(solve.FlagCrisis) {
		resp.Resources = solve.CrisisResources
	}
	return c.JSON(http.StatusOK, resp)
}
