package game

import (
	"sort"
	"strconv"
	"strings"

	"github.com/triviahuddle/backend/internal/messages"
)

// Results tier thresholds, inclusive lower bounds evaluated top-down.
const (
	tierOutstanding = 90
	tierGreat       = 70
	tierGood        = 50
	tierNiceTry     = 30
)

const maxFeedbackTopics = 3

// Summary is the aggregated outcome of a completed session.
type Summary struct {
	Performance []PlayerPerformance `json:"performance"`
	Feedback    string              `json:"feedback"`
	Tier        string              `json:"tier"`
}

// Aggregate computes per-player performance and session feedback from the
// round history.
func Aggregate(rounds []Round, catalog *messages.Catalog) Summary {
	if catalog == nil {
		catalog = messages.Default()
	}
	perf := AggregatePerformance(rounds)
	return Summary{
		Performance: perf,
		Feedback:    feedbackText(rounds, perf, catalog),
		Tier:        ResultsTier(overallPercentage(rounds), catalog),
	}
}

// AggregatePerformance groups rounds by the player who answered and sorts
// by correct answers, descending. Grouping preserves first-appearance
// order among ties.
func AggregatePerformance(rounds []Round) []PlayerPerformance {
	byPlayer := map[string]*PlayerPerformance{}
	var order []string
	for _, r := range rounds {
		player := r.PlayerWhoAnswered
		p := byPlayer[player]
		if p == nil {
			p = &PlayerPerformance{Player: player}
			byPlayer[player] = p
			order = append(order, player)
		}
		p.Total++
		if r.IsCorrect {
			p.Correct++
		}
	}
	out := make([]PlayerPerformance, 0, len(order))
	for _, name := range order {
		p := byPlayer[name]
		p.Percentage = float64(p.Correct) / float64(p.Total) * 100
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Correct > out[j].Correct })
	return out
}

func overallPercentage(rounds []Round) float64 {
	if len(rounds) == 0 {
		return 0
	}
	correct := 0
	for _, r := range rounds {
		if r.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(rounds)) * 100
}

// ResultsTier maps the overall percentage onto a feedback tier.
func ResultsTier(percentage float64, catalog *messages.Catalog) string {
	switch {
	case percentage >= tierOutstanding:
		return catalog.Lookup("tier.outstanding", nil)
	case percentage >= tierGreat:
		return catalog.Lookup("tier.great", nil)
	case percentage >= tierGood:
		return catalog.Lookup("tier.good", nil)
	case percentage >= tierNiceTry:
		return catalog.Lookup("tier.niceTry", nil)
	default:
		return catalog.Lookup("tier.dontGiveUp", nil)
	}
}

// feedbackText builds the natural-language session feedback: the top
// performer when they answered more than once, and up to three topic
// fragments derived from missed questions. A session with nothing missed
// gets a pure congratulation.
func feedbackText(rounds []Round, perf []PlayerPerformance, catalog *messages.Catalog) string {
	var parts []string
	if len(perf) > 0 && perf[0].Total > 1 && perf[0].Player != "" {
		parts = append(parts, catalog.Lookup("feedback.topPerformer", map[string]string{
			"player":  perf[0].Player,
			"correct": strconv.Itoa(perf[0].Correct),
		}))
	}

	var topics []string
	for _, r := range rounds {
		if r.IsCorrect {
			continue
		}
		if frag := topicFragment(r.Question); frag != "" {
			topics = append(topics, frag)
		}
		if len(topics) >= maxFeedbackTopics {
			break
		}
	}
	if len(topics) == 0 {
		parts = append(parts, catalog.Lookup("feedback.perfect", nil))
	} else {
		parts = append(parts, catalog.Lookup("feedback.reviewTopics", map[string]string{
			"topics": strings.Join(topics, ", "),
		}))
	}
	return strings.Join(parts, " ")
}

// topicFragment takes the leading words of a question as a rough topic.
func topicFragment(question string) string {
	words := strings.Fields(question)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.TrimRight(strings.Join(words, " "), "?.!,")
}
