package analysis

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triviahuddle/backend/internal/messages"
)

type fakeProvider struct {
	calls int
	reply string
	err   error
}

func (f *fakeProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, model, "", prompt)
}

func (f *fakeProvider) CompleteWithSystem(ctx context.Context, model, system, prompt string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestLocalAnalyzeHedgedGuess(t *testing.T) {
	a := New(nil, "", nil)

	res := a.Analyze(context.Background(), "Who lost at Waterloo?", "Napoleon Bonaparte",
		"I think it's maybe Napoleon", "")

	assert.False(t, res.CorrectAnswerMentioned, "surname alone is not a substring match of the stored phrase")
	require.NotEmpty(t, res.BestGuesses)
	found := false
	for _, g := range res.BestGuesses {
		if strings.Contains(strings.ToLower(g), "napoleon") {
			found = true
		}
	}
	assert.True(t, found, "expected a guess derived from the hedged phrase, got %v", res.BestGuesses)
	assert.GreaterOrEqual(t, res.Confidence, 0.6)
}

func TestLocalAnalyzeAnswerMentioned(t *testing.T) {
	a := New(nil, "", nil)

	res := a.Analyze(context.Background(), "What is the capital of France?", "Paris",
		"It has to be Paris, the Eiffel Tower is there", "")

	assert.True(t, res.CorrectAnswerMentioned)
	// base 0.30 + mention 0.40
	assert.InDelta(t, 0.70, res.Confidence, 1e-9)
	assert.NotEmpty(t, res.Analysis)
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	a := New(nil, "", nil)
	rng := rand.New(rand.NewSource(7))
	words := []string{"maybe", "castle", "i", "think", "france", "1789", "what", "if", "could", "be", "revolution", "paris", "."}
	for i := 0; i < 300; i++ {
		n := rng.Intn(80)
		parts := make([]string, n)
		for j := range parts {
			parts[j] = words[rng.Intn(len(words))]
		}
		res := a.Analyze(context.Background(), "When did the revolution start?", "1789", strings.Join(parts, " "), "")
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
		assert.LessOrEqual(t, len(res.BestGuesses), MaxGuesses)
		assert.LessOrEqual(t, len(res.KeyTopics), MaxKeyTopics)
	}
}

func TestExtractGuessesBounds(t *testing.T) {
	notes := "Maybe Rome. Could be Athens! Perhaps Sparta? I think Carthage. Possibly Troy."
	guesses := ExtractGuesses(notes)
	assert.Len(t, guesses, MaxGuesses)

	assert.Empty(t, ExtractGuesses("maybe x"), "too-short guesses are dropped")
	long := "maybe " + strings.Repeat("a", 150)
	assert.Empty(t, ExtractGuesses(long), "overlong guesses are dropped")
}

func TestLengthLimitsCountRunes(t *testing.T) {
	// 2 characters even though 6 bytes
	assert.Empty(t, ExtractGuesses("maybe 東京"), "two-character guesses are dropped regardless of byte width")
	assert.Equal(t, []string{"東京タワー"}, ExtractGuesses("maybe 東京タワー"))

	assert.Contains(t, KeyTopics("東京タワー 東京タワー 東京タワー"), "東京タワー")
	assert.Empty(t, KeyTopics("城 城 城"), "tokens of three characters or fewer are dropped")

	// 40 characters of notes stay under the long-discussion bonus even at
	// 120 bytes
	a := New(nil, "", nil)
	notes := strings.Repeat("謎", 40)
	res := a.Analyze(context.Background(), "?", "答え", notes, "")
	assert.InDelta(t, baseConfidence, res.Confidence, 1e-9)
}

func TestExtractGuessesDedup(t *testing.T) {
	notes := "Maybe Rome. Could be rome. Perhaps ROME."
	guesses := ExtractGuesses(notes)
	assert.Len(t, guesses, 1)
}

func TestKeyTopics(t *testing.T) {
	notes := "castle castle castle moat moat drawbridge drawbridge knight banner siege siege siege siege"
	topics := KeyTopics(notes)
	require.Len(t, topics, 5)
	assert.Equal(t, "siege", topics[0])
	assert.Equal(t, "castle", topics[1])
	// moat and drawbridge tie at 2; moat appeared first
	assert.Equal(t, []string{"moat", "drawbridge"}, topics[2:4])
}

func TestOracleAnalyzeParsesReply(t *testing.T) {
	fp := &fakeProvider{reply: `{"correctAnswerMentioned": true, "bestGuesses": ["Napoleon"],
		"confidence": 1.7, "analysis": "They had it.", "suggestions": ["commit"],
		"keyTopics": ["a","b","c","d","e","f","g"],
		"speakerContributions": {"Alice": {"wordCount": 12, "keyPoints": ["maybe Napoleon"], "confidence": 0.8}}}`}
	a := New(fp, "gpt-4o-mini", nil)

	res := a.Analyze(context.Background(), "q", "Napoleon Bonaparte", "notes", "")

	assert.Equal(t, 1, fp.calls)
	assert.True(t, res.CorrectAnswerMentioned)
	assert.Equal(t, 1.0, res.Confidence, "oracle confidence is clamped into [0,1]")
	assert.Len(t, res.KeyTopics, MaxKeyTopics)
	assert.Equal(t, 12, res.SpeakerContributions["Alice"].WordCount)
}

func TestOracleFailureFallsBackToHeuristics(t *testing.T) {
	fp := &fakeProvider{err: errors.New("boom")}
	a := New(fp, "gpt-4o-mini", nil)

	res := a.Analyze(context.Background(), "Who lost at Waterloo?", "Napoleon Bonaparte",
		"I think it's maybe Napoleon", "")

	assert.Equal(t, 1, fp.calls)
	assert.NotEmpty(t, res.BestGuesses, "fallback must produce the full heuristic result")
	assert.GreaterOrEqual(t, res.Confidence, 0.6)
	assert.NotNil(t, res.SpeakerContributions)
}

func TestOracleGarbageFallsBackToHeuristics(t *testing.T) {
	fp := &fakeProvider{reply: "the team seemed unsure, roughly 60% confident"}
	a := New(fp, "gpt-4o-mini", nil)

	res := a.Analyze(context.Background(), "q", "Paris", "maybe Paris after all", "")

	assert.True(t, res.CorrectAnswerMentioned)
	assert.NotEmpty(t, res.Analysis)
}

func TestSpeakerContributions(t *testing.T) {
	a := New(nil, "", nil)
	transcript := "Alice: I think it could be Vienna\nBob: no idea honestly\nAlice: the congress was there"

	res := a.Analyze(context.Background(), "Where was the congress of 1815?", "Vienna", "notes", transcript)

	require.Contains(t, res.SpeakerContributions, "Alice")
	require.Contains(t, res.SpeakerContributions, "Bob")
	assert.Equal(t, 10, res.SpeakerContributions["Alice"].WordCount)
	assert.NotEmpty(t, res.SpeakerContributions["Alice"].KeyPoints)
	assert.Empty(t, res.SpeakerContributions["Bob"].KeyPoints)
}

func TestClassifyDifficultyLocal(t *testing.T) {
	a := New(nil, "", nil)
	ctx := context.Background()

	assert.Equal(t, DifficultyEasy, a.ClassifyDifficulty(ctx, "Capital of France?", "Paris"))
	assert.Equal(t, DifficultyHard, a.ClassifyDifficulty(ctx,
		strings.Repeat("a very long and winding question ", 20), "some answer"))
	assert.Equal(t, DifficultyMedium, a.ClassifyDifficulty(ctx,
		"Which treaty ended the Thirty Years' War?", "The Peace of Westphalia"))
}

func TestClassifyDifficultyOracle(t *testing.T) {
	fp := &fakeProvider{reply: "Hard"}
	a := New(fp, "gpt-4o-mini", nil)

	assert.Equal(t, DifficultyHard, a.ClassifyDifficulty(context.Background(), "Capital of France?", "Paris"))

	fp.err = errors.New("down")
	assert.Equal(t, DifficultyEasy, a.ClassifyDifficulty(context.Background(), "Capital of France?", "Paris"))
}

func TestLocalHintGenerator(t *testing.T) {
	h := LocalHintGenerator{Catalog: messages.Default()}
	hint, err := h.Hint(context.Background(), "Capital of France?", "Paris")
	require.NoError(t, err)
	assert.Contains(t, hint, "P")
	assert.Contains(t, hint, "5")

	_, err = h.Hint(context.Background(), "q", "   ")
	assert.Error(t, err)
}

func TestLocalIntroGenerator(t *testing.T) {
	g := LocalIntroGenerator{Catalog: messages.Default()}
	intro, err := g.Intro(context.Background(), 2, "history")
	require.NoError(t, err)
	assert.Contains(t, intro, "2")
	assert.Contains(t, intro, "history")
}
