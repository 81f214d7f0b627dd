package server

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mindwell-labs/mindwell/internal/solve"
	"github.com/mindwell-labs/mindwell/internal/store"
)

func newSessionsTest(t *testing.T) (*echo.Echo, *SessionsHandler, sqlmock.Sqlmock) {
	t.Helper()
	e := echo.New()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := &store.Store{DB: db}
	orch := solve.NewOrchestrator(
		solve.Options{PromptInjectionPolicy: solve.InjectionPolicyWarn},
		log.New(io.Discard, "[ORCH] ", log.LstdFlags),
		st,
	)
	handler := &SessionsHandler{Store: st, Orch: orch, Limiter: NewRateLimiter(nil, 0)}
	return e, handler, mock
}

func sessionRows(sess store.Session) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "title", "current_step", "status", "created_at", "updated_at"}).
		AddRow(sess.ID, sess.UserID, sess.Title, sess.CurrentStep, sess.Status, sess.CreatedAt, sess.UpdatedAt)
}

func TestCreateSessionHandler(t *testing.T) {
	e, handler, mock := newSessionsTest(t)
	userID := uuid.New()
	now := time.Now().UTC()
	sess := store.Session{ID: uuid.New(), UserID: userID, Title: "work stress", CurrentStep: "receive", Status: "active", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(`INSERT INTO solve_sessions`).
		WithArgs(userID, "work stress", "receive", "active").
		WillReturnRows(sessionRows(sess))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"title":"work stress"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", userID.String())

	if err := handler.create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var got store.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CurrentStep != "receive" {
		t.Fatalf("new session step = %q, want receive", got.CurrentStep)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	e, handler, mock := newSessionsTest(t)
	userID, id := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT id, user_id, title, current_step, status, created_at, updated_at`).
		WithArgs(id, userID).
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id.String(), nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", userID.String())
	ctx.SetParamNames("id")
	ctx.SetParamValues(id.String())

	err := handler.get(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestPostMessageInvalidSessionID(t *testing.T) {
	e, handler, _ := newSessionsTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/nope/messages", strings.NewReader(`{"content":"hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", uuid.New().String())
	ctx.SetParamNames("id")
	ctx.SetParamValues("nope")

	err := handler.postMessage(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestPostMessageEmptyContent(t *testing.T) {
	e, handler, mock := newSessionsTest(t)
	userID, id := uuid.New(), uuid.New()
	now := time.Now().UTC()
	sess := store.Session{ID: id, UserID: userID, Title: "t", CurrentStep: "receive", Status: "active", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(`SELECT id, user_id, title, current_step, status, created_at, updated_at`).
		WithArgs(id, userID).
		WillReturnRows(sessionRows(sess))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id.String()+"/messages", strings.NewReader(`{"content":"   "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", userID.String())
	ctx.SetParamNames("id")
	ctx.SetParamValues(id.String())

	err := handler.postMessage(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

// TestPostMessageReceiveTurn drives the full route with a mocked database:
// session lookup, profile get-or-create, profile save, both chat inserts, and
// the step advance from receive to clarify.
func TestPostMessageReceiveTurn(t *testing.T) {
	e, handler, mock := newSessionsTest(t)
	userID, id, profileID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()
	sess := store.Session{ID: id, UserID: userID, Title: "t", CurrentStep: "receive", Status: "active", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(`SELECT id, user_id, title, current_step, status, created_at, updated_at`).
		WithArgs(id, userID).
		WillReturnRows(sessionRows(sess))

	mock.ExpectExec(`INSERT INTO solve_profiles`).
		WithArgs(id, userID, solve.ProfileSchemaVersion).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, session_id, user_id, schema_version, profile, updated_at`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "user_id", "schema_version", "profile", "updated_at"}).
			AddRow(profileID, id, userID, "v1", []byte(`{}`), now))
	mock.ExpectExec(`UPDATE solve_profiles SET profile=`).
		WithArgs(id, sqlmock.AnyArg(), solve.ProfileSchemaVersion).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`INSERT INTO chat_messages`).
		WithArgs(id, store.RoleUser, sqlmock.AnyArg(), "receive").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "role", "content", "step", "created_at"}).
			AddRow(uuid.New(), id, store.RoleUser, "I want to improve my work efficiency", "receive", now))
	mock.ExpectQuery(`INSERT INTO chat_messages`).
		WithArgs(id, store.RoleAssistant, sqlmock.AnyArg(), "clarify").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "role", "content", "step", "created_at"}).
			AddRow(uuid.New(), id, store.RoleAssistant, "reply", "clarify", now))

	mock.ExpectExec(`UPDATE solve_sessions SET current_step=`).
		WithArgs(id, "clarify").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id.String()+"/messages", strings.NewReader(`{"content":"I want to improve my work efficiency"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", userID.String())
	ctx.SetParamNames("id")
	ctx.SetParamValues(id.String())

	if err := handler.postMessage(ctx); err != nil {
		t.Fatalf("postMessage: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp PostMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PrimaryAgent != solve.AgentEmpath {
		t.Fatalf("primary = %s, want empath", resp.PrimaryAgent)
	}
	if resp.Session.CurrentStep != "clarify" {
		t.Fatalf("session step = %q, want clarify", resp.Session.CurrentStep)
	}
	if resp.Blocked {
		t.Fatal("clean turn must not be blocked")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// TestPostMessageCrisisTurn verifies a blocked turn: the step never advances
// and the response carries the crisis resources.
func TestPostMessageCrisisTurn(t *testing.T) {
	e, handler, mock := newSessionsTest(t)
	userID, id, profileID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()
	sess := store.Session{ID: id, UserID: userID, Title: "t", CurrentStep: "receive", Status: "active", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(`SELECT id, user_id, title, current_step, status, created_at, updated_at`).
		WithArgs(id, userID).
		WillReturnRows(sessionRows(sess))

	mock.ExpectExec(`INSERT INTO solve_profiles`).
		WithArgs(id, userID, solve.ProfileSchemaVersion).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, session_id, user_id, schema_version, profile, updated_at`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "user_id", "schema_version", "profile", "updated_at"}).
			AddRow(profileID, id, userID, "v1", []byte(`{}`), now))
	mock.ExpectExec(`UPDATE solve_profiles SET profile=`).
		WithArgs(id, sqlmock.AnyArg(), solve.ProfileSchemaVersion).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`INSERT INTO chat_messages`).
		WithArgs(id, store.RoleUser, sqlmock.AnyArg(), "receive").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "role", "content", "step", "created_at"}).
			AddRow(uuid.New(), id, store.RoleUser, "", "receive", now))
	mock.ExpectQuery(`INSERT INTO chat_messages`).
		WithArgs(id, store.RoleAssistant, sqlmock.AnyArg(), "receive").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "role", "content", "step", "created_at"}).
			AddRow(uuid.New(), id, store.RoleAssistant, "resources", "receive", now))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id.String()+"/messages", strings.NewReader(`{"content":"I want to kill myself"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", userID.String())
	ctx.SetParamNames("id")
	ctx.SetParamValues(id.String())

	if err := handler.postMessage(ctx); err != nil {
		t.Fatalf("postMessage: %v", err)
	}

	var resp PostMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Blocked || resp.BlockReason != "CRISIS" {
		t.Fatalf("expected crisis block, got %+v", resp)
	}
	if resp.Session.CurrentStep != "receive" {
		t.Fatalf("step advanced on blocked turn: %q", resp.Session.CurrentStep)
	}
	if resp.Resources["US"] != "988" {
		t.Fatalf("resources missing: %v", resp.Resources)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
