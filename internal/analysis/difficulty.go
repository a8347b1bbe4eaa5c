package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	easyAnswerChars   = 15
	easyCombinedWords = 30
	hardCombinedChars = 500
	hardCombinedWords = 60
)

const difficultySystemPrompt = "Classify the difficulty of the trivia question for a casual team. " +
	"Reply with exactly one word: easy, medium or hard."

// ClassifyDifficulty rates a question/answer pair. The oracle is asked
// when configured; any failure or unrecognized reply falls back to the
// local length thresholds.
func (a *Analyzer) ClassifyDifficulty(ctx context.Context, question, answer string) Difficulty {
	if a.provider != nil {
		prompt := "Question: " + question + "\nAnswer: " + answer
		raw, err := a.provider.CompleteWithSystem(ctx, a.model, difficultySystemPrompt, prompt)
		if err == nil {
			switch {
			case strings.Contains(strings.ToLower(raw), "easy"):
				return DifficultyEasy
			case strings.Contains(strings.ToLower(raw), "hard"):
				return DifficultyHard
			case strings.Contains(strings.ToLower(raw), "medium"):
				return DifficultyMedium
			}
			log.Debug().Str("reply", raw).Msg("unrecognized difficulty label, using local classifier")
		} else {
			log.Warn().Err(err).Msg("difficulty classification failed, using local classifier")
		}
	}
	return classifyLocally(question, answer)
}

func classifyLocally(question, answer string) Difficulty {
	combined := question + " " + answer
	words := len(strings.Fields(combined))
	switch {
	case len(answer) <= easyAnswerChars && words < easyCombinedWords:
		return DifficultyEasy
	case len(combined) > hardCombinedChars || words > hardCombinedWords:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}
