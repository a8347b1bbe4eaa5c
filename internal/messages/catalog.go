// Package messages provides the key→template lookup used for session
// feedback, hints and analysis text. Templates use {name} placeholders.
package messages

import "strings"

type Catalog struct {
	templates map[string]string
}

// Default returns the built-in English catalog.
func Default() *Catalog {
	return &Catalog{templates: map[string]string{
		"tier.outstanding": "Outstanding! Your team really knows its stuff.",
		"tier.great":       "Great job! That was a strong round of trivia.",
		"tier.good":        "Good work! Solid teamwork out there.",
		"tier.niceTry":     "Nice try! A few more rounds and you'll get there.",
		"tier.dontGiveUp":  "Don't give up! Every session makes the team sharper.",

		"feedback.topPerformer": "{player} carried the team with {correct} correct answers.",
		"feedback.reviewTopics": "Worth revisiting: {topics}.",
		"feedback.perfect":      "A perfect session, nothing left to review. Congratulations!",

		"analysis.mentioned":  "The correct answer came up during your discussion. Trust the team when someone lands on it.",
		"analysis.guesses":    "The team floated {count} guess(es) but did not settle on the right one.",
		"analysis.noSignal":   "The discussion stayed general without concrete guesses.",
		"suggest.voiceGuess":  "Try voicing explicit guesses, even uncertain ones.",
		"suggest.history":     "Consider the historical context and time period.",
		"suggest.geography":   "Think about the geography involved.",
		"suggest.person":      "Focus on who could plausibly be behind it.",
		"suggest.commit":      "When the answer is on the table, commit to it.",

		"hint.shape":  "The answer starts with \"{letter}\" and has {length} letters.",
		"intro.round": "Round {round}: {topic}. Put your heads together!",
	}}
}

// Lookup resolves key against the catalog and substitutes params into the
// template. Unknown keys return the key itself so callers always get text.
func (c *Catalog) Lookup(key string, params map[string]string) string {
	tmpl, ok := c.templates[key]
	if !ok {
		return key
	}
	for name, value := range params {
		tmpl = strings.ReplaceAll(tmpl, "{"+name+"}", value)
	}
	return tmpl
}
