// Package analysis extracts structured signals (guesses, topics,
// confidence) from a team's free-text discussion notes. A local heuristic
// path always works; when an oracle provider is configured the whole
// analysis is delegated to it, with the heuristics as fallback on any
// transport or parse failure. Callers always get a complete Result.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/triviahuddle/backend/internal/ai"
	"github.com/triviahuddle/backend/internal/messages"
)

const (
	// MaxGuesses bounds how many candidate guesses a Result carries.
	MaxGuesses = 3
	// MaxKeyTopics bounds the topic list.
	MaxKeyTopics = 5

	minGuessLen = 3
	maxGuessLen = 100

	baseConfidence      = 0.30
	guessFoundBonus     = 0.30
	answerMentionBonus  = 0.40
	longDiscussionBonus = 0.10
	longDiscussionChars = 100
)

// hedgeMarkers locate candidate guesses inside free text. Order matters:
// earlier markers win when several occur in one sentence.
var hedgeMarkers = []string{
	"i think", "maybe", "could be", "answer is", "perhaps", "what if", "possibly",
}

var stopWords = map[string]bool{
	"that": true, "this": true, "with": true, "have": true, "what": true,
	"they": true, "from": true, "were": true, "been": true, "their": true,
	"would": true, "could": true, "about": true, "there": true, "which": true,
	"think": true, "maybe": true, "because": true, "really": true, "should": true,
}

// Contribution summarizes one speaker's part of the discussion.
type Contribution struct {
	WordCount  int      `json:"wordCount"`
	KeyPoints  []string `json:"keyPoints"`
	Confidence float64  `json:"confidence"`
}

// Result is the full outcome of a discussion analysis.
type Result struct {
	CorrectAnswerMentioned bool                    `json:"correctAnswerMentioned"`
	BestGuesses            []string                `json:"bestGuesses"`
	Confidence             float64                 `json:"confidence"`
	Analysis               string                  `json:"analysis"`
	Suggestions            []string                `json:"suggestions"`
	KeyTopics              []string                `json:"keyTopics"`
	SpeakerContributions   map[string]Contribution `json:"speakerContributions"`
}

const analysisSystemPrompt = "You analyze a trivia team's discussion notes against the correct answer. " +
	`Respond with JSON only: {"correctAnswerMentioned": bool, "bestGuesses": [up to 3 strings], ` +
	`"confidence": 0.0-1.0, "analysis": "one or two sentences", "suggestions": [strings], ` +
	`"keyTopics": [up to 5 strings], "speakerContributions": {"name": {"wordCount": int, "keyPoints": [strings], "confidence": 0.0-1.0}}}`

// Analyzer owns its oracle configuration immutably. A nil provider keeps
// all analysis on the local heuristic path.
type Analyzer struct {
	provider ai.Provider
	model    string
	catalog  *messages.Catalog
}

func New(provider ai.Provider, model string, catalog *messages.Catalog) *Analyzer {
	if catalog == nil {
		catalog = messages.Default()
	}
	return &Analyzer{provider: provider, model: model, catalog: catalog}
}

// Analyze produces a Result for the given discussion notes. The oracle
// path is used when a provider is configured; any failure there falls back
// to the local heuristics, never to a partial result.
func (a *Analyzer) Analyze(ctx context.Context, question, correctAnswer, notes, transcript string) Result {
	if a.provider != nil {
		if res, err := a.oracleAnalyze(ctx, question, correctAnswer, notes, transcript); err == nil {
			return res
		} else {
			log.Warn().Err(err).Msg("oracle analysis failed, using local heuristics")
		}
	}
	return a.localAnalyze(question, correctAnswer, notes, transcript)
}

func (a *Analyzer) oracleAnalyze(ctx context.Context, question, correctAnswer, notes, transcript string) (Result, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\nCorrect answer: %s\nDiscussion notes:\n%s\n", question, correctAnswer, notes)
	if transcript != "" {
		fmt.Fprintf(&sb, "Transcript:\n%s\n", transcript)
	}
	raw, err := a.provider.CompleteWithSystem(ctx, a.model, analysisSystemPrompt, sb.String())
	if err != nil {
		return Result{}, err
	}
	var res Result
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &res); err != nil {
		return Result{}, fmt.Errorf("parse analysis reply: %w", err)
	}
	return clamp(res), nil
}

func (a *Analyzer) localAnalyze(question, correctAnswer, notes, transcript string) Result {
	res := Result{
		CorrectAnswerMentioned: answerMentioned(notes, correctAnswer),
		BestGuesses:            ExtractGuesses(notes),
		KeyTopics:              KeyTopics(notes),
		SpeakerContributions:   speakerContributions(transcript),
	}

	confidence := baseConfidence
	if len(res.BestGuesses) > 0 {
		confidence += guessFoundBonus
	}
	if res.CorrectAnswerMentioned {
		confidence += answerMentionBonus
	}
	if utf8.RuneCountInString(notes) > longDiscussionChars {
		confidence += longDiscussionBonus
	}
	res.Confidence = confidence

	res.Analysis, res.Suggestions = a.narrate(question, res)
	return clamp(res)
}

func (a *Analyzer) narrate(question string, res Result) (string, []string) {
	var analysis string
	var suggestions []string
	switch {
	case res.CorrectAnswerMentioned:
		analysis = a.catalog.Lookup("analysis.mentioned", nil)
		suggestions = append(suggestions, a.catalog.Lookup("suggest.commit", nil))
	case len(res.BestGuesses) > 0:
		analysis = a.catalog.Lookup("analysis.guesses", map[string]string{
			"count": fmt.Sprintf("%d", len(res.BestGuesses)),
		})
	default:
		analysis = a.catalog.Lookup("analysis.noSignal", nil)
		suggestions = append(suggestions, a.catalog.Lookup("suggest.voiceGuess", nil))
	}

	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "when") || strings.Contains(q, "date") || strings.Contains(q, "year"):
		suggestions = append(suggestions, a.catalog.Lookup("suggest.history", nil))
	case strings.Contains(q, "where"):
		suggestions = append(suggestions, a.catalog.Lookup("suggest.geography", nil))
	case strings.Contains(q, "who"):
		suggestions = append(suggestions, a.catalog.Lookup("suggest.person", nil))
	}
	return analysis, suggestions
}

func answerMentioned(notes, correctAnswer string) bool {
	answer := strings.TrimSpace(strings.ToLower(correctAnswer))
	if answer == "" {
		return false
	}
	return strings.Contains(strings.ToLower(notes), answer)
}

// ExtractGuesses scans the notes for hedge markers and returns the text
// following each marker up to the next sentence boundary: trimmed, deduped
// case-insensitively, bounded to MaxGuesses entries of 3 to 100 characters.
func ExtractGuesses(notes string) []string {
	var guesses []string
	seen := map[string]bool{}
	for _, sentence := range splitSentences(notes) {
		lower := strings.ToLower(sentence)
		for _, marker := range hedgeMarkers {
			ix := strings.Index(lower, marker)
			if ix < 0 {
				continue
			}
			guess := strings.TrimSpace(sentence[ix+len(marker):])
			guess = strings.TrimLeft(guess, ",:;- ")
			if n := utf8.RuneCountInString(guess); n < minGuessLen || n > maxGuessLen {
				continue
			}
			key := strings.ToLower(guess)
			if seen[key] {
				continue
			}
			seen[key] = true
			guesses = append(guesses, guess)
			if len(guesses) >= MaxGuesses {
				return guesses
			}
		}
	}
	return guesses
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}

// KeyTopics returns the up to five most frequent meaningful tokens in the
// notes, ties broken by first appearance.
func KeyTopics(notes string) []string {
	counts := map[string]int{}
	firstSeen := map[string]int{}
	var order []string
	pos := 0
	tokens := strings.FieldsFunc(strings.ToLower(notes), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) <= 3 || stopWords[tok] {
			continue
		}
		if counts[tok] == 0 {
			firstSeen[tok] = pos
			order = append(order, tok)
			pos++
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	if len(order) > MaxKeyTopics {
		order = order[:MaxKeyTopics]
	}
	return order
}

// speakerContributions parses a "Name: utterance" transcript. An empty
// transcript yields an empty map, never nil.
func speakerContributions(transcript string) map[string]Contribution {
	out := map[string]Contribution{}
	for _, line := range strings.Split(transcript, "\n") {
		name, utterance, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		utterance = strings.TrimSpace(utterance)
		if name == "" || utterance == "" {
			continue
		}
		c := out[name]
		c.WordCount += len(strings.Fields(utterance))
		lower := strings.ToLower(utterance)
		for _, marker := range hedgeMarkers {
			if strings.Contains(lower, marker) {
				c.KeyPoints = append(c.KeyPoints, utterance)
				break
			}
		}
		c.Confidence = baseConfidence
		if len(c.KeyPoints) > 0 {
			c.Confidence = baseConfidence + guessFoundBonus
		}
		out[name] = c
	}
	return out
}

// clamp enforces the Result invariants on both the heuristic and the
// oracle path: confidence in [0,1], at most MaxGuesses guesses and
// MaxKeyTopics topics, non-nil speaker map.
func clamp(res Result) Result {
	if res.Confidence < 0 {
		res.Confidence = 0
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	if len(res.BestGuesses) > MaxGuesses {
		res.BestGuesses = res.BestGuesses[:MaxGuesses]
	}
	if len(res.KeyTopics) > MaxKeyTopics {
		res.KeyTopics = res.KeyTopics[:MaxKeyTopics]
	}
	if res.SpeakerContributions == nil {
		res.SpeakerContributions = map[string]Contribution{}
	}
	return res
}
