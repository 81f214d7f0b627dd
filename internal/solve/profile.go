package solve

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProfileRecord is the durable representation of a profile row as stored by
// the memory bank. The Profile payload is opaque JSON; LoadProfile decodes it.
type ProfileRecord struct {
	ID            uuid.UUID
	SessionID     uuid.UUID
	UserID        uuid.UUID
	SchemaVersion string
	Profile       json.RawMessage
	UpdatedAt     time.Time
}

// NewProfile returns a freshly initialized profile scaffold for a session.
func NewProfile(sessionID, userID uuid.UUID) *ProblemProfile {
	return &ProblemProfile{
		SessionID: sessionID,
		UserID:    userID,
		Meta: ProfileMeta{
			SchemaVersion:    ProfileSchemaVersion,
			Mode:             "solve",
			LastUpdatedAt:    time.Now().UTC(),
			ClarifyState:     ClarifyInit,
			ClarifyTurnIndex: 0,
		},
		Domain: DomainOther,
	}
}

// LoadProfile decodes a stored profile payload. Legacy or corrupted JSON is
// recovered by falling back to a fresh scaffold carrying forward the record's
// session and user ids: conversational continuity beats schema fidelity, so
// this never returns an error.
func LoadProfile(rec ProfileRecord) *ProblemProfile {
	if len(rec.Profile) == 0 {
		return NewProfile(rec.SessionID, rec.UserID)
	}
	var p ProblemProfile
	if err := json.Unmarshal(rec.Profile, &p); err != nil {
		return NewProfile(rec.SessionID, rec.UserID)
	}
	if p.SessionID == uuid.Nil {
		p.SessionID = rec.SessionID
	}
	if p.UserID == uuid.Nil {
		p.UserID = rec.UserID
	}
	if p.Meta.SchemaVersion == "" {
		p.Meta.SchemaVersion = ProfileSchemaVersion
	}
	if p.Meta.Mode == "" {
		p.Meta.Mode = "solve"
	}
	if p.Meta.ClarifyState == "" {
		p.Meta.ClarifyState = ClarifyInit
	}
	if p.Domain == "" {
		p.Domain = DomainOther
	}
	return &p
}

// appendRun records one agent invocation in the profile's append-only audit
// log. Earlier entries are never pruned here; retention is an external concern.
func appendRun(p *ProblemProfile, agent AgentName, startedAt time.Time, latencyMS int) {
	p.AgentRuns = append(p.AgentRuns, AgentRun{
		Agent:     agent,
		StartedAt: startedAt,
		LatencyMS: latencyMS,
	})
}
