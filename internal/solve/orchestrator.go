package solve

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// MemoryBank is the persistence boundary for problem profiles. The store
// package provides the Postgres implementation; tests substitute in-memory
// fakes.
type MemoryBank interface {
	// GetOrCreateProfile returns the session's profile row, creating an empty
	// one if none exists. Concurrent calls for the same session must converge
	// to a single row.
	GetOrCreateProfile(ctx context.Context, sessionID, userID uuid.UUID) (ProfileRecord, error)
	// SaveProfile overwrites the row's payload with the serialized profile.
	SaveProfile(ctx context.Context, rec ProfileRecord, profile *ProblemProfile) error
}

// Options is the orchestrator's explicit configuration. Passed in at
// construction so agent behavior never depends on ambient global state.
type Options struct {
	// PromptInjectionPolicy is "warn" (flag but allow) or "block".
	PromptInjectionPolicy string
}

// Orchestrator routes each Solve turn through the agent pipeline: the auditor
// gates every turn, then exactly one primary agent handles it based on the
// session's current step. One orchestrator serves all sessions; per-turn
// state lives in the profile.
type Orchestrator struct {
	opts   Options
	logger *log.Logger
	memory MemoryBank
}

func NewOrchestrator(opts Options, logger *log.Logger, memory MemoryBank) *Orchestrator {
	if opts.PromptInjectionPolicy == "" {
		opts.PromptInjectionPolicy = InjectionPolicyWarn
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{opts: opts, logger: logger, memory: memory}
}

// HandleSolveMessage processes one user turn and returns the decision: which
// agent handled it, the step the session should move to, and the response
// text. The profile is loaded, mutated, and saved inside this call; a blocked
// turn still persists the audit run but never advances the step.
func (o *Orchestrator) HandleSolveMessage(ctx context.Context, sessionID, userID uuid.UUID, userInput string, currentStep SolveStep) (Decision, error) {
	rec, err := o.memory.GetOrCreateProfile(ctx, sessionID, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("get or create profile: %w", err)
	}
	profile := LoadProfile(rec)

	auditStarted := time.Now().UTC()
	audit := RunAuditor(userInput, o.opts.PromptInjectionPolicy)
	appendRun(profile, AgentAuditor, auditStarted, int(time.Since(auditStarted).Milliseconds()))

	if !audit.Allowed {
		o.logger.Printf("[ORCH] session=%s blocked reason=%s", sessionID, audit.Reason)
		decision := Decision{
			PrimaryAgent: AgentAuditor,
			NextStep:     currentStep,
			ResponseText: CrisisResponse().Message,
			Profile:      profile,
			Audit:        audit,
		}
		if err := o.memory.SaveProfile(ctx, rec, profile); err != nil {
			return Decision{}, fmt.Errorf("save profile: %w", err)
		}
		return decision, nil
	}

	var (
		primary      = AgentClarify
		nextStep     = currentStep
		responseText string
	)

	switch currentStep {
	case StepReceive:
		primary = AgentEmpath
		started := time.Now().UTC()
		empath := RunEmpath(audit.SanitizedUserInput)
		appendRun(profile, AgentEmpath, started, int(time.Since(started).Milliseconds()))

		profile.CoreConcernSummary = empath.CoreConcernSummary
		emotion := empath.Emotion
		profile.Emotion = &emotion
		responseText = empath.UserFacingMessage
		nextStep = StepClarify

	case StepClarify:
		primary = AgentClarify
		started := time.Now().UTC()
		clarify := RunClarify(profile, audit.SanitizedUserInput)
		appendRun(profile, AgentClarify, started, int(time.Since(started).Milliseconds()))

		profile.Hypotheses = clarify.Hypotheses
		profile.InfoGaps = clarify.InfoGaps
		profile.LastQuestions = append(profile.LastQuestions, clarify.NextQuestion.Prompt)
		responseText = clarify.UserFacingMessage

		done := profile.Meta.ClarifyState == ClarifyDone ||
			(profile.UserGoal != "" &&
				len(profile.SuccessCriteria) > 0 &&
				len(profile.Constraints) > 0 &&
				profile.Meta.ClarifyTurnIndex >= 2)
		if done {
			nextStep = StepReframe
		} else {
			nextStep = StepClarify
		}

	case StepReframe, StepOptions:
		primary = AgentVisionary
		started := time.Now().UTC()
		visionary := RunVisionary(profile, currentStep)
		appendRun(profile, AgentVisionary, started, int(time.Since(started).Milliseconds()))

		responseText = visionary.UserFacingMessage
		if currentStep == StepReframe {
			nextStep = StepOptions
		} else {
			nextStep = StepCommit
		}

	default:
		// Commit, plus any unrecognized step value, lands here.
		primary = AgentClarify
		responseText = "Let's wrap this up: if you could pick just one smallest action you could do in 10 minutes today, which would you start with?"
		nextStep = StepCommit
	}

	profile.Meta.LastUpdatedAt = time.Now().UTC()
	if err := o.memory.SaveProfile(ctx, rec, profile); err != nil {
		return Decision{}, fmt.Errorf("save profile: %w", err)
	}

	o.logger.Printf("[ORCH] session=%s agent=%s step=%s -> %s", sessionID, primary, currentStep, nextStep)

	return Decision{
		PrimaryAgent: primary,
		NextStep:     nextStep,
		ResponseText: responseText,
		Profile:      profile,
		Audit:        audit,
	}, nil
}
