package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportSession appends a plain-text summary of a completed session to
// filename, creating the directory and file as needed.
func ExportSession(s *Session, summary Summary, filename string) error {
	s.mu.Lock()
	code := s.Code
	rounds := make([]Round, len(s.rounds))
	copy(rounds, s.rounds)
	members := make([]string, len(s.discussion.TeamMembers))
	copy(members, s.discussion.TeamMembers)
	s.mu.Unlock()

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Trivia Session %s\n", code))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	if len(members) > 0 {
		sb.WriteString("Team: " + strings.Join(members, ", ") + "\n")
	}
	sb.WriteString("\n")

	for i, r := range rounds {
		mark := "✗"
		if r.IsCorrect {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("Round %d: %s\n", i+1, r.Question))
		sb.WriteString(fmt.Sprintf("  %s team answered %q (correct: %q)", mark, r.TeamAnswer, r.CorrectAnswer))
		if r.PlayerWhoAnswered != "" {
			sb.WriteString(" via " + r.PlayerWhoAnswered)
		}
		sb.WriteString("\n")
	}

	if len(summary.Performance) > 0 {
		sb.WriteString("\nPlayers:\n")
		for _, p := range summary.Performance {
			name := p.Player
			if name == "" {
				name = "(team)"
			}
			sb.WriteString(fmt.Sprintf("- %s: %d/%d (%.0f%%)\n", name, p.Correct, p.Total, p.Percentage))
		}
	}
	sb.WriteString("\n" + summary.Tier + "\n")
	sb.WriteString(summary.Feedback + "\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
