// Package arbiter resolves answer correctness. It runs the local matcher
// first and only escalates genuine mismatches to the semantic oracle. Every
// oracle failure is absorbed here and fails closed: the caller always gets
// a Verdict, never an error.
package arbiter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/triviahuddle/backend/internal/ai"
	"github.com/triviahuddle/backend/internal/match"
)

const (
	// MinOracleConfidence is the acceptance floor for oracle verdicts.
	MinOracleConfidence = 0.70

	// MaxEscalationLen bounds what gets sent to the oracle. Oversized
	// answers are rejected locally instead.
	MaxEscalationLen = 500
)

const judgeSystemPrompt = "You judge whether a trivia team's answer means the same thing as the reference answer. " +
	"Accept synonyms, translations, spelling variants and partial names that unambiguously identify the reference. " +
	`Respond with JSON only: {"equivalent": bool, "confidence": 0.0-1.0, "explanation": "short reason"}`

// Verdict is the full outcome of an answer resolution.
type Verdict struct {
	IsCorrect     bool    `json:"isCorrect"`
	ExactMatch    bool    `json:"exactMatch"`
	AIAccepted    bool    `json:"aiAccepted"`
	AIConfidence  float64 `json:"aiConfidence"`
	AIExplanation string  `json:"aiExplanation"`
}

// Arbiter holds its oracle configuration immutably; construct one per
// process and share it across sessions.
type Arbiter struct {
	provider ai.Provider
	model    string
	language string
	enabled  bool
}

func New(provider ai.Provider, model, language string, enabled bool) *Arbiter {
	return &Arbiter{provider: provider, model: model, language: language, enabled: enabled}
}

// Resolve checks teamAnswer against correctAnswer. The local validator
// wins immediately when it matches; no oracle call is made in that branch.
// The oracle is skipped entirely when AI is disabled, no provider is
// configured, or the answer exceeds MaxEscalationLen.
func (a *Arbiter) Resolve(ctx context.Context, teamAnswer, correctAnswer string) Verdict {
	if match.Validate(teamAnswer, correctAnswer) {
		return Verdict{IsCorrect: true, ExactMatch: true}
	}
	if !a.enabled || a.provider == nil || len([]rune(teamAnswer)) > MaxEscalationLen {
		return Verdict{}
	}

	prompt := fmt.Sprintf("Language: %s\nReference answer: %q\nTeam answer: %q", a.language, correctAnswer, teamAnswer)
	raw, err := a.provider.CompleteWithSystem(ctx, a.model, judgeSystemPrompt, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("answer arbitration failed, marking incorrect")
		return Verdict{}
	}

	var out struct {
		Equivalent  bool    `json:"equivalent"`
		Confidence  float64 `json:"confidence"`
		Explanation string  `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &out); err != nil {
		log.Warn().Err(err).Msg("unparseable arbitration reply, marking incorrect")
		return Verdict{}
	}

	accepted := out.Equivalent && out.Confidence >= MinOracleConfidence
	return Verdict{
		IsCorrect:     accepted,
		AIAccepted:    accepted,
		AIConfidence:  out.Confidence,
		AIExplanation: out.Explanation,
	}
}
