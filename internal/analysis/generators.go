package analysis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/triviahuddle/backend/internal/ai"
	"github.com/triviahuddle/backend/internal/messages"
)

// HintGenerator produces a hint for the current question without giving
// the answer away.
type HintGenerator interface {
	Hint(ctx context.Context, question, answer string) (string, error)
}

// IntroGenerator produces a short spoken-style introduction for a round.
type IntroGenerator interface {
	Intro(ctx context.Context, roundNumber int, topic string) (string, error)
}

// LocalHintGenerator derives a shape hint (first letter, length) from the
// answer itself.
type LocalHintGenerator struct {
	Catalog *messages.Catalog
}

func (g LocalHintGenerator) Hint(_ context.Context, _ string, answer string) (string, error) {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return "", fmt.Errorf("empty answer")
	}
	runes := []rune(trimmed)
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters++
		}
	}
	return g.Catalog.Lookup("hint.shape", map[string]string{
		"letter": strings.ToUpper(string(runes[0])),
		"length": strconv.Itoa(letters),
	}), nil
}

// OracleHintGenerator asks the model for a hint.
type OracleHintGenerator struct {
	Provider ai.Provider
	Model    string
}

func (g OracleHintGenerator) Hint(ctx context.Context, question, answer string) (string, error) {
	system := "Give a single-sentence hint for the trivia question that nudges the team toward the answer " +
		"without containing the answer or any word from it."
	prompt := fmt.Sprintf("Question: %s\nAnswer (do not reveal): %s", question, answer)
	return g.Provider.CompleteWithSystem(ctx, g.Model, system, prompt)
}

// LocalIntroGenerator renders the round introduction from the catalog.
type LocalIntroGenerator struct {
	Catalog *messages.Catalog
}

func (g LocalIntroGenerator) Intro(_ context.Context, roundNumber int, topic string) (string, error) {
	if topic == "" {
		topic = "general knowledge"
	}
	return g.Catalog.Lookup("intro.round", map[string]string{
		"round": strconv.Itoa(roundNumber),
		"topic": topic,
	}), nil
}

// OracleIntroGenerator asks the model for a round introduction.
type OracleIntroGenerator struct {
	Provider ai.Provider
	Model    string
}

func (g OracleIntroGenerator) Intro(ctx context.Context, roundNumber int, topic string) (string, error) {
	system := "You are an upbeat quiz host. Introduce the upcoming round in one or two sentences."
	prompt := fmt.Sprintf("Round number: %d\nTopic: %s", roundNumber, topic)
	return g.Provider.CompleteWithSystem(ctx, g.Model, system, prompt)
}
