// Package match decides whether a free-text team answer is equivalent to a
// reference answer without any network involvement. Everything in here is
// deterministic: identical inputs always yield identical results.
package match

import (
	"strings"
	"unicode"
)

const (
	// SimilarityThreshold is the minimum Levenshtein similarity for a
	// fuzzy match to count as correct.
	SimilarityThreshold = 0.80

	// MaxFuzzyWords restricts fuzzy matching to short reference answers.
	// Longer answers tend to produce accidental near-matches.
	MaxFuzzyWords = 2

	// Containment is only attempted when the candidate carries at least
	// half of the reference answer's length, and never below three runes.
	minContainmentRunes = 3
	containmentRatio    = 0.5
)

// Normalize lowercases s, removes every rune that is not a Unicode letter
// or digit, and collapses whitespace runs into single spaces. Works across
// scripts, not just Latin. Normalize is idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Levenshtein returns the minimum number of single-rune insertions,
// deletions and substitutions needed to turn a into b.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity maps an edit distance onto [0,1], where 1 means equal.
func Similarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// Validate reports whether teamAnswer is an acceptable rendition of
// correctAnswer. The check escalates through three stages: exact match on
// normalized strings, bounded containment, and a Levenshtein fallback that
// only applies to reference answers of at most MaxFuzzyWords words.
func Validate(teamAnswer, correctAnswer string) bool {
	team := Normalize(teamAnswer)
	correct := Normalize(correctAnswer)
	if team == "" || correct == "" {
		return false
	}
	if team == correct {
		return true
	}

	teamLen := len([]rune(team))
	correctLen := len([]rune(correct))

	// Containment is gated on the candidate's length so that short
	// generic words cannot match everything.
	need := minContainmentRunes
	if n := int(containmentRatio * float64(correctLen)); n > need {
		need = n
	}
	if teamLen >= need && (strings.Contains(team, correct) || strings.Contains(correct, team)) {
		return true
	}

	if len(strings.Fields(correct)) <= MaxFuzzyWords {
		return Similarity(team, correct) >= SimilarityThreshold
	}
	return false
}
