package game

import (
	"testing"
)

func TestSessionStartedEvent(t *testing.T) {
	s := NewState()
	if s.Phase != PhaseWaiting {
		t.Fatalf("expected initial phase %s, got %s", PhaseWaiting, s.Phase)
	}

	next := Apply(s, Event{Type: EventSessionStarted, RoundTime: 30})
	if next.Phase != PhaseDiscussion {
		t.Fatalf("expected phase %s, got %s", PhaseDiscussion, next.Phase)
	}
	if next.TimerSeconds != 30 {
		t.Fatalf("expected 30 timer seconds, got %d", next.TimerSeconds)
	}
	if !next.IsTimerRunning {
		t.Fatal("timer should be running after session start")
	}
	if next.SessionStartTime.IsZero() || next.RoundStartTime.IsZero() {
		t.Fatal("start times should be recorded")
	}
	// the input state must be untouched
	if s.Phase != PhaseWaiting || s.TimerSeconds != 0 {
		t.Fatal("Apply must not mutate its input state")
	}
}

func TestSessionStartedOnlyFromWaiting(t *testing.T) {
	s := State{Phase: PhaseFeedback, TeamAnswer: "Paris", CurrentRoundIndex: 3}
	next := Apply(s, Event{Type: EventSessionStarted, RoundTime: 30})
	if next != s {
		t.Fatal("SESSION_STARTED outside waiting should be a no-op")
	}
}

func TestSubmitAnswerTransition(t *testing.T) {
	s := Apply(NewState(), Event{Type: EventSessionStarted, RoundTime: 60})

	next := Apply(s, Event{Type: EventSubmitAnswer})
	if next.Phase != PhaseAnswer {
		t.Fatalf("expected phase %s, got %s", PhaseAnswer, next.Phase)
	}
	if next.IsTimerRunning {
		t.Fatal("timer should stop on submit")
	}

	next = Apply(next, Event{Type: EventAnswerSubmitted})
	if next.Phase != PhaseFeedback {
		t.Fatalf("expected phase %s, got %s", PhaseFeedback, next.Phase)
	}
}

func TestTimeUpOnlyFromDiscussion(t *testing.T) {
	s := NewState()
	next := Apply(s, Event{Type: EventTimeUp})
	if next != s {
		t.Fatal("TIME_UP outside discussion should be a no-op")
	}
}

func TestNextRoundEvent(t *testing.T) {
	s := Apply(NewState(), Event{Type: EventSessionStarted, RoundTime: 30})
	s = Apply(s, Event{Type: EventSetAnswer, Value: "Paris"})
	s = Apply(s, Event{Type: EventSetNotes, Value: "we talked about it"})
	s = Apply(s, Event{Type: EventSetPlayer, Value: "Alice"})
	s = Apply(s, Event{Type: EventSubmitAnswer})
	s = Apply(s, Event{Type: EventAnswerSubmitted})

	next := Apply(s, Event{Type: EventNextRound, RoundTime: 30})
	if next.CurrentRoundIndex != s.CurrentRoundIndex+1 {
		t.Fatalf("expected round index %d, got %d", s.CurrentRoundIndex+1, next.CurrentRoundIndex)
	}
	if next.TeamAnswer != "" || next.DiscussionNotes != "" || next.SelectedPlayer != "" {
		t.Fatal("NEXT_ROUND must clear answer, notes and player")
	}
	if next.Phase != PhaseDiscussion {
		t.Fatalf("expected phase %s, got %s", PhaseDiscussion, next.Phase)
	}
	if !next.IsTimerRunning {
		t.Fatal("timer should restart on next round")
	}
}

func TestNextRoundOnlyFromFeedback(t *testing.T) {
	s := Apply(NewState(), Event{Type: EventSessionStarted, RoundTime: 30})
	next := Apply(s, Event{Type: EventNextRound})
	if next != s {
		t.Fatal("NEXT_ROUND outside feedback should be a no-op")
	}
}

func TestResetRoundEvent(t *testing.T) {
	s := Apply(NewState(), Event{Type: EventSessionStarted, RoundTime: 30})
	s = Apply(s, Event{Type: EventSetAnswer, Value: "Paris"})
	s = Apply(s, Event{Type: EventSetPlayer, Value: "Alice"})

	next := Apply(s, Event{Type: EventResetRound})
	if next.TeamAnswer != "" || next.SelectedPlayer != "" {
		t.Fatal("RESET_ROUND must clear answer and player")
	}
	if next.Phase != s.Phase {
		t.Fatal("RESET_ROUND must not change the phase")
	}
}

func TestContentEvents(t *testing.T) {
	s := Apply(NewState(), Event{Type: EventSessionStarted, RoundTime: 30})

	next := Apply(s, Event{Type: EventSetNotes, Value: "maybe Napoleon"})
	if next.DiscussionNotes != "maybe Napoleon" {
		t.Fatalf("expected notes to be set, got %q", next.DiscussionNotes)
	}
	if next.Phase != s.Phase || next.TeamAnswer != s.TeamAnswer {
		t.Fatal("SET_NOTES must only touch the notes field")
	}

	next = Apply(s, Event{Type: EventSetRound, Index: 4})
	if next.CurrentRoundIndex != 4 {
		t.Fatalf("expected round index 4, got %d", next.CurrentRoundIndex)
	}
}

func TestUnknownEventIsNoop(t *testing.T) {
	s := Apply(NewState(), Event{Type: EventSessionStarted, RoundTime: 30})
	next := Apply(s, Event{Type: EventType("SOMETHING_ELSE")})
	if next != s {
		t.Fatal("unknown events must return the state unchanged")
	}
}

func TestGameCompletedFromAnyPhase(t *testing.T) {
	for _, phase := range []Phase{PhaseWaiting, PhaseDiscussion, PhaseAnswer, PhaseFeedback} {
		s := State{Phase: phase, IsTimerRunning: true}
		next := Apply(s, Event{Type: EventGameCompleted})
		if next.Phase != PhaseCompleted {
			t.Fatalf("GAME_COMPLETED from %s: expected %s, got %s", phase, PhaseCompleted, next.Phase)
		}
		if next.IsTimerRunning {
			t.Fatal("timer must stop on completion")
		}
	}
}

func TestTickCountsDownAndFiresTimeUp(t *testing.T) {
	s := Apply(NewState(), Event{Type: EventSessionStarted, RoundTime: 2})

	s = Apply(s, Event{Type: EventTick})
	if s.TimerSeconds != 1 {
		t.Fatalf("expected 1 second left, got %d", s.TimerSeconds)
	}
	if s.Phase != PhaseDiscussion {
		t.Fatalf("phase should still be %s, got %s", PhaseDiscussion, s.Phase)
	}

	s = Apply(s, Event{Type: EventTick})
	if s.TimerSeconds != 0 {
		t.Fatalf("expected 0 seconds left, got %d", s.TimerSeconds)
	}
	if s.Phase != PhaseAnswer {
		t.Fatalf("reaching zero should fire TIME_UP, got phase %s", s.Phase)
	}
	if s.IsTimerRunning {
		t.Fatal("timer should stop at zero")
	}

	// ticks after the countdown stopped are ignored
	next := Apply(s, Event{Type: EventTick})
	if next != s {
		t.Fatal("TICK with stopped timer should be a no-op")
	}
}

func TestStartReadingAndMediaSkippable(t *testing.T) {
	s := NewState()
	s = Apply(s, Event{Type: EventStartReading})
	if s.Phase != PhaseReading {
		t.Fatalf("expected phase %s, got %s", PhaseReading, s.Phase)
	}
	s = Apply(s, Event{Type: EventStartMedia})
	if s.Phase != PhaseMediaPlayback {
		t.Fatalf("expected phase %s, got %s", PhaseMediaPlayback, s.Phase)
	}
	s = Apply(s, Event{Type: EventStartDiscussion, RoundTime: 45})
	if s.Phase != PhaseDiscussion || s.TimerSeconds != 45 || !s.IsTimerRunning {
		t.Fatalf("START_DISCUSSION should enter discussion with a fresh timer, got %+v", s)
	}
}
