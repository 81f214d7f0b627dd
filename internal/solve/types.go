package solve

import (
	"time"

	"github.com/google/uuid"
)

// AgentName identifies which agent produced an output or handled a turn.
type AgentName string

const (
	AgentAuditor   AgentName = "auditor"
	AgentEmpath    AgentName = "empath"
	AgentClarify   AgentName = "clarify"
	AgentVisionary AgentName = "visionary"
)

// SolveStep is the outer session state machine. The string values are the
// stable wire form persisted as the session's current_step; clients key
// display logic off them, so they never change.
type SolveStep string

const (
	StepReceive SolveStep = "receive"
	StepClarify SolveStep = "clarify"
	StepReframe SolveStep = "reframe"
	StepOptions SolveStep = "options"
	StepCommit  SolveStep = "commit"
)

// Ordinal returns the position of the step in the fixed Solve ordering.
// Unknown steps sort after commit so the fallback branch handles them.
func (s SolveStep) Ordinal() int {
	switch s {
	case StepReceive:
		return 0
	case StepClarify:
		return 1
	case StepReframe:
		return 2
	case StepOptions:
		return 3
	case StepCommit:
		return 4
	default:
		return 5
	}
}

// ClarifyState is the Clarify agent's private sub-state machine, nested
// inside the outer Solve steps and persisted in the profile meta.
type ClarifyState string

const (
	ClarifyInit     ClarifyState = "INIT"
	ClarifyAlign    ClarifyState = "ALIGN"
	ClarifyMap      ClarifyState = "MAP"
	ClarifyDiagnose ClarifyState = "DIAGNOSE"
	ClarifyCommit   ClarifyState = "COMMIT"
	ClarifyDone     ClarifyState = "DONE"
)

// ProblemDomain is a coarse problem category. It currently defaults to
// "other"; inference may populate it in a later schema version.
type ProblemDomain string

const (
	DomainWork         ProblemDomain = "work"
	DomainCareer       ProblemDomain = "career"
	DomainRelationship ProblemDomain = "relationship"
	DomainHealth       ProblemDomain = "health"
	DomainFinance      ProblemDomain = "finance"
	DomainTech         ProblemDomain = "tech"
	DomainOther        ProblemDomain = "other"
)

// EmotionLabel enumerates the emotion classes the detector can produce.
type EmotionLabel string

const (
	EmotionAnxious  EmotionLabel = "anxious"
	EmotionSad      EmotionLabel = "sad"
	EmotionCalm     EmotionLabel = "calm"
	EmotionConfused EmotionLabel = "confused"
	EmotionNeutral  EmotionLabel = "neutral"
)

// HypothesisType categorizes candidate explanations for the user's stuck point.
type HypothesisType string

const (
	HypothesisRootCause      HypothesisType = "root_cause"
	HypothesisConstraint     HypothesisType = "constraint"
	HypothesisGoalMismatch   HypothesisType = "goal_mismatch"
	HypothesisSkillGap       HypothesisType = "skill_gap"
	HypothesisProcessGap     HypothesisType = "process_gap"
	HypothesisEmotionalBlock HypothesisType = "emotional_block"
)

// AuditFlag annotates a turn with safety/PII findings.
type AuditFlag string

const (
	FlagCrisis          AuditFlag = "crisis"
	FlagPromptInjection AuditFlag = "prompt_injection"
	FlagPIIEmail        AuditFlag = "pii_email"
	FlagPIIPhone        AuditFlag = "pii_phone"
)

// Prompt-injection policies accepted by the auditor.
const (
	InjectionPolicyWarn  = "warn"
	InjectionPolicyBlock = "block"
)

// ProfileSchemaVersion tags the serialized profile layout.
const ProfileSchemaVersion = "v1"

// ProfileMeta carries versioning and the clarify sub-state for a profile.
type ProfileMeta struct {
	SchemaVersion    string       `json:"schema_version"`
	Mode             string       `json:"mode"`
	LastUpdatedAt    time.Time    `json:"last_updated_at"`
	ClarifyState     ClarifyState `json:"clarify_state"`
	ClarifyTurnIndex int          `json:"clarify_turn_index"`
}

// EmotionSnapshot is the last observed emotion, overwritten each Empath pass.
type EmotionSnapshot struct {
	Label       EmotionLabel `json:"label"`
	Confidence  float64      `json:"confidence"`
	Intensity15 int          `json:"intensity_1_5"`
}

// Hypothesis is a testable candidate explanation with a confidence score.
type Hypothesis struct {
	ID          string         `json:"id"`
	Statement   string         `json:"statement"`
	Type        HypothesisType `json:"type"`
	Confidence  float64        `json:"confidence"`
	TestsNeeded []string       `json:"tests_needed"`
}

// InfoGap names a missing problem fact, scored to prioritize the next question.
type InfoGap struct {
	Key           string  `json:"key"`
	Missing       bool    `json:"missing"`
	Importance    float64 `json:"importance"`
	Urgency       float64 `json:"urgency"`
	Answerability float64 `json:"answerability"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// AgentRun is one append-only audit log entry per agent invocation.
type AgentRun struct {
	Agent      AgentName      `json:"agent"`
	StartedAt  time.Time      `json:"started_at"`
	LatencyMS  int            `json:"latency_ms"`
	TokenUsage map[string]int `json:"token_usage,omitempty"`
	Notes      string         `json:"notes,omitempty"`
}

// ProblemProfile is the accumulated understanding of one Solve session's
// problem. One profile per session; created lazily on the first orchestrated
// turn and mutated in place across turns.
type ProblemProfile struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`

	Meta   ProfileMeta   `json:"meta"`
	Domain ProblemDomain `json:"domain"`

	CoreConcernSummary string   `json:"core_concern_summary,omitempty"`
	UserGoal           string   `json:"user_goal,omitempty"`
	SuccessCriteria    []string `json:"success_criteria"`
	Constraints        []string `json:"constraints"`
	Attempts           []string `json:"attempts"`

	Emotion *EmotionSnapshot `json:"emotion,omitempty"`

	Hypotheses    []Hypothesis `json:"hypotheses"`
	InfoGaps      []InfoGap    `json:"info_gaps"`
	LastQuestions []string     `json:"last_questions"`

	AgentRuns []AgentRun `json:"agent_runs"`
}

// AuditorOutput is the result of the safety gate. Ephemeral: computed fresh
// from raw input each turn, never persisted.
type AuditorOutput struct {
	Allowed            bool        `json:"allowed"`
	SanitizedUserInput string      `json:"sanitized_user_input"`
	Flags              []AuditFlag `json:"flags"`
	Reason             string      `json:"reason,omitempty"`
}

// HasFlag reports whether the audit raised the given flag.
func (a AuditorOutput) HasFlag(flag AuditFlag) bool {
	for _, f := range a.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// EmpathOutput is the first-turn acknowledgment bundle.
type EmpathOutput struct {
	Emotion            EmotionSnapshot `json:"emotion"`
	CoreConcernSummary string          `json:"core_concern_summary"`
	UserFacingMessage  string          `json:"user_facing_message"`
}

// QuestionPlan describes the single next question the Clarify agent selected.
type QuestionPlan struct {
	Prompt         string   `json:"prompt"`
	Rationale      string   `json:"rationale"`
	ExpectedFields []string `json:"expected_fields"`
	AllowUnknown   bool     `json:"allow_unknown"`
}

// ClarifyOutput carries the recomputed gap/hypothesis tables and next question.
type ClarifyOutput struct {
	Hypotheses        []Hypothesis `json:"hypotheses"`
	InfoGaps          []InfoGap    `json:"info_gaps"`
	NextQuestion      QuestionPlan `json:"next_question"`
	UserFacingMessage string       `json:"user_facing_message"`
}

// OptionItem is one structured option with pros and cons.
type OptionItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

// VisionaryOutput carries the reframed problem statement and option set.
type VisionaryOutput struct {
	ReframedProblem   string       `json:"reframed_problem,omitempty"`
	Options           []OptionItem `json:"options"`
	UserFacingMessage string       `json:"user_facing_message"`
}

// Decision is the ephemeral bundle the orchestrator returns to the calling
// route. Callers extract what they need; it is never persisted as an entity.
type Decision struct {
	PrimaryAgent AgentName       `json:"primary_agent"`
	NextStep     SolveStep       `json:"next_step"`
	ResponseText string          `json:"response_text"`
	Profile      *ProblemProfile `json:"profile"`
	Audit        AuditorOutput   `json:"audit"`
}
