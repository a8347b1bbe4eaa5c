package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/triviahuddle/backend/internal/analysis"
	"github.com/triviahuddle/backend/internal/arbiter"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotHost         = errors.New("not host")
	ErrInvalidPhase    = errors.New("invalid phase for action")
	ErrNoQuestions     = errors.New("no questions provided")
	ErrAlreadyAnswered = errors.New("answer already submitted for this round")
	ErrStaleAnalysis   = errors.New("analysis result arrived for a past round")
)

// Emitter receives session events for the transport layer. It must not
// block; implementations hand off to their own delivery machinery.
type Emitter func(event string, payload any)

// Session owns one team's trivia run: the phase-machine state, the
// question list, the round history and the single active countdown.
type Session struct {
	Code      string
	CreatedAt time.Time
	Config    SessionConfig
	HostToken string

	arbiter  *arbiter.Arbiter
	analyzer *analysis.Analyzer

	mu         sync.Mutex
	state      State
	questions  []Question
	rounds     []Round
	discussion DiscussionState
	answered   map[int]bool
	inFlight   map[int]bool
	timerStop  context.CancelFunc
	timerGen   int
	emit       Emitter
}

// SessionManager tracks live sessions by code, in the single-process,
// in-memory fashion; nothing survives a restart.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	arbiter  *arbiter.Arbiter
	analyzer *analysis.Analyzer
}

func NewSessionManager(arb *arbiter.Arbiter, an *analysis.Analyzer) *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session), arbiter: arb, analyzer: an}
}

// CreateSession registers a new session over the given ordered question
// list. An empty list is the one bootstrap error that propagates.
func (sm *SessionManager) CreateSession(cfg SessionConfig, questions []Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	code := randomCode(5)
	for sm.sessions[code] != nil {
		code = randomCode(5)
	}
	s := &Session{
		Code:      code,
		CreatedAt: time.Now().UTC(),
		Config:    cfg,
		HostToken: uuid.NewString(),
		arbiter:   sm.arbiter,
		analyzer:  sm.analyzer,
		state:     NewState(),
		questions: questions,
		answered:  make(map[int]bool),
		inFlight:  make(map[int]bool),
		discussion: DiscussionState{
			TeamMembers: cfg.TeamMembers,
		},
	}
	sm.sessions[code] = s
	return s, nil
}

func (sm *SessionManager) Get(code string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s := sm.sessions[code]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// SetEmitter attaches the transport callback for this session.
func (s *Session) SetEmitter(e Emitter) {
	s.mu.Lock()
	s.emit = e
	s.mu.Unlock()
}

// AuthorizeHost verifies a host token presented by a transport client.
func (s *Session) AuthorizeHost(token string) error {
	if token == "" || token != s.HostToken {
		return ErrNotHost
	}
	return nil
}

// Dispatch applies one event to the session state and performs the timer
// and discussion side effects the transition implies.
func (s *Session) Dispatch(ev Event) State {
	return s.dispatch(ev, -1)
}

// dispatch is Dispatch with an optional timer generation tag. A tick from
// a countdown goroutine carries the generation it was started under; if
// the timer has been restarted since, the tick is stale and discarded.
func (s *Session) dispatch(ev Event, gen int) State {
	s.mu.Lock()
	if gen >= 0 && gen != s.timerGen {
		st := s.state
		s.mu.Unlock()
		return st
	}
	prev := s.state
	next := Apply(prev, ev)
	s.state = next

	switch ev.Type {
	case EventSetNotes:
		s.discussion.Notes = ev.Value
	case EventSetPlayer:
		s.discussion.CurrentSpeaker = ev.Value
	}

	enteredDiscussion := next.Phase == PhaseDiscussion &&
		(prev.Phase != PhaseDiscussion || ev.Type == EventStartDiscussion)
	if enteredDiscussion {
		s.resetDiscussionLocked(next.TimerSeconds)
	}
	if s.discussion.IsActive {
		s.discussion.TimeRemaining = next.TimerSeconds
	}

	restart := false
	switch ev.Type {
	case EventSessionStarted, EventStartDiscussion, EventNextRound:
		restart = next.IsTimerRunning && next != prev
	}
	stop := prev.IsTimerRunning && !next.IsTimerRunning
	var cancel context.CancelFunc
	if stop || restart {
		cancel = s.timerStop
		s.timerStop = nil
		s.timerGen++
		s.discussion.IsActive = restart
	}
	emit := s.emit
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if restart {
		s.startCountdown()
	}

	if emit != nil && prev.Phase != next.Phase {
		emit("phase:change", map[string]any{"from": prev.Phase, "to": next.Phase, "state": next})
	}
	return next
}

// resetDiscussionLocked starts a fresh discussion period, wiping the
// previous round's notes, transcript and analysis.
func (s *Session) resetDiscussionLocked(totalTime int) {
	s.discussion = DiscussionState{
		Phase:         PhaseDiscussion,
		TimeRemaining: totalTime,
		TotalTime:     totalTime,
		IsActive:      true,
		TeamMembers:   s.discussion.TeamMembers,
	}
}

// startCountdown launches the session's single countdown goroutine. Any
// previously running countdown has been cancelled by Dispatch before this
// is called; the context guarantees release on every exit path.
func (s *Session) startCountdown() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.timerStop != nil {
		s.timerStop()
	}
	s.timerStop = cancel
	gen := s.timerGen
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				stale := gen != s.timerGen
				s.mu.Unlock()
				if stale {
					return
				}
				st := s.dispatch(Event{Type: EventTick}, gen)
				s.mu.Lock()
				emit := s.emit
				s.mu.Unlock()
				if emit != nil {
					emit("timer:update", map[string]any{
						"timerSeconds":   st.TimerSeconds,
						"isTimerRunning": st.IsTimerRunning,
					})
				}
				if !st.IsTimerRunning {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close tears the session down, releasing its countdown if one is active.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.timerStop
	s.timerStop = nil
	s.timerGen++
	s.discussion.IsActive = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Start begins the session: waiting → discussion with the configured
// round time.
func (s *Session) Start() State {
	rt := s.Config.RoundTime
	return s.Dispatch(Event{Type: EventSessionStarted, RoundTime: rt})
}

// SubmitAnswer resolves the team's answer for the current round and
// advances the phase machine to feedback. The resolution always completes
// (success or fail-closed) before the feedback transition is applied, and
// a per-round single-flight guard rejects concurrent double submissions.
func (s *Session) SubmitAnswer(ctx context.Context, answer, player string) (arbiter.Verdict, error) {
	s.mu.Lock()
	if s.state.Phase != PhaseDiscussion && s.state.Phase != PhaseAnswer {
		s.mu.Unlock()
		return arbiter.Verdict{}, ErrInvalidPhase
	}
	ix := s.state.CurrentRoundIndex
	if ix >= len(s.questions) {
		s.mu.Unlock()
		return arbiter.Verdict{}, ErrInvalidPhase
	}
	if s.inFlight[ix] || s.answered[ix] {
		s.mu.Unlock()
		return arbiter.Verdict{}, ErrAlreadyAnswered
	}
	s.inFlight[ix] = true
	q := s.questions[ix]
	notes := s.discussion.Notes
	if notes == "" {
		notes = s.state.DiscussionNotes
	}
	s.mu.Unlock()

	s.Dispatch(Event{Type: EventSetAnswer, Value: answer})
	if player != "" {
		s.Dispatch(Event{Type: EventSetPlayer, Value: player})
	}
	s.Dispatch(Event{Type: EventSubmitAnswer})

	verdict := s.arbiter.Resolve(ctx, answer, q.CorrectAnswer)

	s.mu.Lock()
	s.rounds = append(s.rounds, Round{
		Question:          q.Question,
		CorrectAnswer:     q.CorrectAnswer,
		TeamAnswer:        answer,
		IsCorrect:         verdict.IsCorrect,
		PlayerWhoAnswered: player,
		DiscussionNotes:   notes,
	})
	s.answered[ix] = true
	delete(s.inFlight, ix)
	emit := s.emit
	s.mu.Unlock()

	s.Dispatch(Event{Type: EventAnswerSubmitted})
	if emit != nil {
		emit("answer:feedback", map[string]any{"round": ix, "verdict": verdict})
	}
	log.Info().Str("code", s.Code).Int("round", ix).Bool("correct", verdict.IsCorrect).Msg("answer resolved")
	return verdict, nil
}

// RequestAnalysis runs the discussion analyzer for the current round. The
// request is tagged with the round index it was issued for; if the session
// has moved on by the time the result arrives, it is discarded rather than
// committed to a stale round.
func (s *Session) RequestAnalysis(ctx context.Context) (*analysis.Result, error) {
	s.mu.Lock()
	ix := s.state.CurrentRoundIndex
	if ix >= len(s.questions) {
		s.mu.Unlock()
		return nil, ErrInvalidPhase
	}
	q := s.questions[ix]
	notes := s.discussion.Notes
	if notes == "" {
		notes = s.state.DiscussionNotes
	}
	transcript := s.discussion.AudioTranscript
	s.mu.Unlock()

	res := s.analyzer.Analyze(ctx, q.Question, q.CorrectAnswer, notes, transcript)

	s.mu.Lock()
	if s.state.CurrentRoundIndex != ix {
		s.mu.Unlock()
		log.Debug().Str("code", s.Code).Int("round", ix).Msg("discarding late analysis result")
		return nil, ErrStaleAnalysis
	}
	s.discussion.AnalysisResult = &res
	emit := s.emit
	s.mu.Unlock()

	if emit != nil {
		emit("discussion:analysis", map[string]any{"round": ix, "result": res})
	}
	return &res, nil
}

// NextRound advances to the next question, or completes the session when
// the question list is exhausted. The second return value reports
// completion.
func (s *Session) NextRound() (State, bool) {
	s.mu.Lock()
	last := s.state.CurrentRoundIndex+1 >= len(s.questions)
	s.mu.Unlock()
	if last {
		return s.Dispatch(Event{Type: EventGameCompleted}), true
	}
	return s.Dispatch(Event{Type: EventNextRound, RoundTime: s.Config.RoundTime}), false
}

// SetTranscript attaches an externally transcribed audio snippet to the
// current discussion.
func (s *Session) SetTranscript(text string) {
	s.mu.Lock()
	s.discussion.AudioTranscript = text
	s.mu.Unlock()
}

// AddTeamMember appends a name to the team roster, keeping insertion
// order and ignoring duplicates.
func (s *Session) AddTeamMember(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.discussion.TeamMembers {
		if m == name {
			return
		}
	}
	s.discussion.TeamMembers = append(s.discussion.TeamMembers, name)
}

// Snapshot returns a copy of the current phase-machine state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Discussion returns a copy of the current discussion state.
func (s *Session) Discussion() DiscussionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discussion
}

// Rounds returns a copy of the completed round history.
func (s *Session) Rounds() []Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Round, len(s.rounds))
	copy(out, s.rounds)
	return out
}

// CurrentQuestion returns the question for the current round.
func (s *Session) CurrentQuestion() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ix := s.state.CurrentRoundIndex
	if ix < 0 || ix >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[ix], true
}

// QuestionCount returns the length of the question list.
func (s *Session) QuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
