package game

import (
	"time"

	"github.com/rs/zerolog/log"
)

// NewState returns the initial phase-machine state.
func NewState() State {
	return State{Phase: PhaseWaiting}
}

// Apply folds one event into the state and returns the successor. The
// input state is never mutated. Events that make no sense in the current
// phase, and unrecognized event types, return the state unchanged.
func Apply(s State, ev Event) State {
	switch ev.Type {
	case EventSessionStarted:
		if s.Phase != PhaseWaiting {
			return s
		}
		now := time.Now()
		s.Phase = PhaseDiscussion
		if ev.RoundTime > 0 {
			s.TimerSeconds = ev.RoundTime
		}
		s.IsTimerRunning = true
		s.SessionStartTime = now
		s.RoundStartTime = now

	case EventStartReading:
		s.Phase = PhaseReading
		s.IsTimerRunning = false

	case EventStartMedia:
		s.Phase = PhaseMediaPlayback
		s.IsTimerRunning = false

	case EventStartDiscussion:
		s.Phase = PhaseDiscussion
		if ev.RoundTime > 0 {
			s.TimerSeconds = ev.RoundTime
		}
		s.IsTimerRunning = true
		s.RoundStartTime = time.Now()

	case EventTimeUp, EventSubmitAnswer:
		if s.Phase != PhaseDiscussion {
			return s
		}
		s.Phase = PhaseAnswer
		s.IsTimerRunning = false

	case EventAnswerSubmitted:
		if s.Phase != PhaseAnswer {
			return s
		}
		s.Phase = PhaseFeedback

	case EventNextRound:
		if s.Phase != PhaseFeedback {
			return s
		}
		s.Phase = PhaseDiscussion
		s.CurrentRoundIndex++
		s.TeamAnswer = ""
		s.DiscussionNotes = ""
		s.SelectedPlayer = ""
		if ev.RoundTime > 0 {
			s.TimerSeconds = ev.RoundTime
		}
		s.IsTimerRunning = true
		s.RoundStartTime = time.Now()

	case EventGameCompleted:
		s.Phase = PhaseCompleted
		s.IsTimerRunning = false

	case EventResetRound:
		s.TeamAnswer = ""
		s.DiscussionNotes = ""
		s.SelectedPlayer = ""

	case EventSetAnswer:
		s.TeamAnswer = ev.Value
	case EventSetNotes:
		s.DiscussionNotes = ev.Value
	case EventSetPlayer:
		s.SelectedPlayer = ev.Value
	case EventSetRound:
		s.CurrentRoundIndex = ev.Index

	case EventTick:
		if !s.IsTimerRunning {
			return s
		}
		if s.TimerSeconds > 0 {
			s.TimerSeconds--
		}
		if s.TimerSeconds == 0 {
			// countdown reaching zero is TIME_UP
			s.Phase = PhaseAnswer
			s.IsTimerRunning = false
		}

	default:
		// Unknown events are a deliberate no-op; log so development
		// builds surface them.
		log.Debug().Str("event", string(ev.Type)).Msg("unhandled session event")
	}
	return s
}
