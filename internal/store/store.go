package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/mindwell-labs/mindwell/internal/solve"
)

// Store wraps the Postgres connection. All queries are raw SQL through
// database/sql; the schema is managed by golang-migrate, not here.
type Store struct {
	DB *sql.DB
}

// Session statuses persisted on solve_sessions.
const (
	SessionStatusActive   = "active"
	SessionStatusArchived = "archived"
)

// Chat message roles persisted on chat_messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one Solve conversation and its outer state machine position.
type Session struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	CurrentStep string    `json:"current_step"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatMessage is one persisted turn half, user or assistant.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Step      string    `json:"step"`
	CreatedAt time.Time `json:"created_at"`
}

func New(db *sql.DB) *Store { return &Store{DB: db} }

func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

func (s *Store) CreateSession(ctx context.Context, userID uuid.UUID, title string) (Session, error) {
	var sess Session
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO solve_sessions (user_id, title, current_step, status)
         VALUES ($1,$2,$3,$4)
         RETURNING id, user_id, title, current_step, status, created_at, updated_at`,
		userID, title, string(solve.StepReceive), SessionStatusActive,
	).Scan(&sess.ID, &sess.UserID, &sess.Title, &sess.CurrentStep, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, title, current_step, status, created_at, updated_at
         FROM solve_sessions WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Title, &sess.CurrentStep, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// GetSession scopes by user id so one user can never read another's session.
func (s *Store) GetSession(ctx context.Context, id, userID uuid.UUID) (Session, error) {
	var sess Session
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, title, current_step, status, created_at, updated_at
         FROM solve_sessions WHERE id=$1 AND user_id=$2`, id, userID).
		Scan(&sess.ID, &sess.UserID, &sess.Title, &sess.CurrentStep, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Store) UpdateSessionStep(ctx context.Context, id uuid.UUID, step string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE solve_sessions SET current_step=$2, updated_at=now() WHERE id=$1`, id, step)
	return err
}

func (s *Store) ArchiveSession(ctx context.Context, id, userID uuid.UUID) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE solve_sessions SET status=$3, updated_at=now() WHERE id=$1 AND user_id=$2`,
		id, userID, SessionStatusArchived)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) InsertChatMessage(ctx context.Context, sessionID uuid.UUID, role, content, step string) (ChatMessage, error) {
	var msg ChatMessage
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content, step)
         VALUES ($1,$2,$3,$4)
         RETURNING id, session_id, role, content, step, created_at`,
		sessionID, role, content, step,
	).Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Step, &msg.CreatedAt)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("insert chat message: %w", err)
	}
	return msg, nil
}

func (s *Store) ListChatMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, session_id, role, content, step, created_at
         FROM chat_messages WHERE session_id=$1 ORDER BY created_at ASC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Step, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// GetOrCreateProfile returns the session's profile row, inserting an empty one
// when none exists. The insert uses ON CONFLICT DO NOTHING against the unique
// session_id constraint, so N concurrent callers for a new session converge on
// a single row and all read it back.
func (s *Store) GetOrCreateProfile(ctx context.Context, sessionID, userID uuid.UUID) (solve.ProfileRecord, error) {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO solve_profiles (session_id, user_id, schema_version, profile)
         VALUES ($1,$2,$3,'{}'::jsonb)
         ON CONFLICT (session_id) DO NOTHING`,
		sessionID, userID, solve.ProfileSchemaVersion)
	if err != nil {
		return solve.ProfileRecord{}, fmt.Errorf("insert profile: %w", err)
	}

	var rec solve.ProfileRecord
	var payload []byte
	err = s.DB.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, schema_version, profile, updated_at
         FROM solve_profiles WHERE session_id=$1`, sessionID).
		Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.SchemaVersion, &payload, &rec.UpdatedAt)
	if err != nil {
		return solve.ProfileRecord{}, fmt.Errorf("select profile: %w", err)
	}
	rec.Profile = payload
	return rec, nil
}

// SaveProfile overwrites the row's payload wholesale. Partial updates are
// deliberately not supported; the profile JSON is a single document.
func (s *Store) SaveProfile(ctx context.Context, rec solve.ProfileRecord, profile *solve.ProblemProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	_, err = s.DB.ExecContext(ctx,
		`UPDATE solve_profiles SET profile=$2, schema_version=$3, updated_at=now() WHERE session_id=$1`,
		rec.SessionID, payload, solve.ProfileSchemaVersion)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// GetProfile reads the stored profile row without creating one.
func (s *Store) GetProfile(ctx context.Context, sessionID uuid.UUID) (solve.ProfileRecord, error) {
	var rec solve.ProfileRecord
	var payload []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, schema_version, profile, updated_at
         FROM solve_profiles WHERE session_id=$1`, sessionID).
		Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.SchemaVersion, &payload, &rec.UpdatedAt)
	if err != nil {
		return solve.ProfileRecord{}, err
	}
	rec.Profile = payload
	return rec, nil
}
