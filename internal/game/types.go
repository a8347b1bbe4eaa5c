package game

import (
	"time"

	"github.com/triviahuddle/backend/internal/analysis"
)

type Phase string

const (
	PhaseWaiting       Phase = "waiting"
	PhaseReading       Phase = "reading"
	PhaseMediaPlayback Phase = "media_playback"
	PhaseDiscussion    Phase = "discussion"
	PhaseAnswer        Phase = "answer"
	PhaseFeedback      Phase = "feedback"
	PhaseCompleted     Phase = "completed"
)

type SessionConfig struct {
	RoundTime   int      `json:"roundTime"` // seconds per discussion period
	Language    string   `json:"language"`
	TeamMembers []string `json:"teamMembers"`
}

// Question is one entry of the ordered list supplied at session creation.
type Question struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correctAnswer"`
	Difficulty    string `json:"difficulty"`
	Topic         string `json:"topic"`
}

// Round is the record of one completed question-answer cycle. It is
// appended to the session history exactly once, when the answer for that
// round is submitted, and never mutated afterwards.
type Round struct {
	Question          string `json:"question"`
	CorrectAnswer     string `json:"correctAnswer"`
	TeamAnswer        string `json:"teamAnswer"`
	IsCorrect         bool   `json:"isCorrect"`
	PlayerWhoAnswered string `json:"playerWhoAnswered"`
	DiscussionNotes   string `json:"discussionNotes"`
}

// State is the phase machine's value. Events never mutate a State in
// place; Apply returns a fresh copy.
type State struct {
	Phase             Phase     `json:"phase"`
	CurrentRoundIndex int       `json:"currentRoundIndex"`
	TeamAnswer        string    `json:"teamAnswer"`
	DiscussionNotes   string    `json:"discussionNotes"`
	SelectedPlayer    string    `json:"selectedPlayer"`
	TimerSeconds      int       `json:"timerSeconds"`
	IsTimerRunning    bool      `json:"isTimerRunning"`
	SessionStartTime  time.Time `json:"sessionStartTime"`
	RoundStartTime    time.Time `json:"roundStartTime"`
}

// DiscussionState tracks one discussion period. It is reset wholesale at
// the start of every discussion; AnalysisResult stays nil until an
// analysis for the current round completes.
type DiscussionState struct {
	Phase           Phase            `json:"phase"`
	TimeRemaining   int              `json:"timeRemaining"`
	TotalTime       int              `json:"totalTime"`
	IsActive        bool             `json:"isActive"`
	Notes           string           `json:"notes"`
	AudioTranscript string           `json:"audioTranscript"`
	AnalysisResult  *analysis.Result `json:"analysisResult"`
	TeamMembers     []string         `json:"teamMembers"`
	CurrentSpeaker  string           `json:"currentSpeaker"`
}

// PlayerPerformance is derived from the round history, never stored.
type PlayerPerformance struct {
	Player     string  `json:"player"`
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Percentage float64 `json:"percentage"`
}

type EventType string

const (
	EventSessionStarted  EventType = "SESSION_STARTED"
	EventStartReading    EventType = "START_READING"
	EventStartMedia      EventType = "START_MEDIA"
	EventStartDiscussion EventType = "START_DISCUSSION"
	EventTimeUp          EventType = "TIME_UP"
	EventSubmitAnswer    EventType = "SUBMIT_ANSWER"
	EventAnswerSubmitted EventType = "ANSWER_SUBMITTED"
	EventNextRound       EventType = "NEXT_ROUND"
	EventGameCompleted   EventType = "GAME_COMPLETED"
	EventResetRound      EventType = "RESET_ROUND"
	EventSetAnswer       EventType = "SET_ANSWER"
	EventSetNotes        EventType = "SET_NOTES"
	EventSetPlayer       EventType = "SET_PLAYER"
	EventSetRound        EventType = "SET_ROUND"
	EventTick            EventType = "TICK"
)

// Event carries a phase-machine event. RoundTime, Value and Index are
// only read by the event types that use them.
type Event struct {
	Type      EventType `json:"type"`
	RoundTime int       `json:"roundTime,omitempty"`
	Value     string    `json:"value,omitempty"`
	Index     int       `json:"index,omitempty"`
}
