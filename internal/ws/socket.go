package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"
	"github.com/triviahuddle/backend/internal/analysis"
	"github.com/triviahuddle/backend/internal/config"
	"github.com/triviahuddle/backend/internal/game"
)

type ConnCtx struct {
	Code  string
	Token string
	Role  string // "host" | "player"
}

type Server struct {
	SM       *game.SessionManager
	hints    analysis.HintGenerator
	intros   analysis.IntroGenerator
	analyzer *analysis.Analyzer
	config   config.Config
}

func New(sm *game.SessionManager, cfg config.Config) *Server {
	return &Server{SM: sm, config: cfg}
}

func (srv *Server) SetHintGenerator(g analysis.HintGenerator)   { srv.hints = g }
func (srv *Server) SetIntroGenerator(g analysis.IntroGenerator) { srv.intros = g }
func (srv *Server) SetAnalyzer(a *analysis.Analyzer)            { srv.analyzer = a }

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// session:create
	io.OnEvent("/", "session:create", func(s socketio.Conn, payload struct {
		Config    game.SessionConfig `json:"config"`
		Questions []game.Question    `json:"questions"`
	}) map[string]any {
		sess, err := srv.SM.CreateSession(payload.Config, payload.Questions)
		if err != nil {
			return srv.err(s, "bad_request", err.Error())
		}
		code := sess.Code
		s.SetContext(&ConnCtx{Code: code, Token: sess.HostToken, Role: "host"})
		s.Join(code)
		sess.SetEmitter(func(event string, data any) {
			io.BroadcastToRoom("/", code, event, data)
		})
		log.Info().Str("sid", s.ID()).Str("code", code).Int("questions", sess.QuestionCount()).Msg("session:create")
		return map[string]any{"sessionCode": code, "hostToken": sess.HostToken}
	})

	// session:join
	io.OnEvent("/", "session:join", func(s socketio.Conn, payload struct {
		SessionCode string `json:"sessionCode"`
		Name        string `json:"name"`
	}) map[string]any {
		sess, err := srv.SM.Get(payload.SessionCode)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		sess.AddTeamMember(payload.Name)
		s.SetContext(&ConnCtx{Code: payload.SessionCode, Role: "player"})
		s.Join(payload.SessionCode)
		log.Info().Str("sid", s.ID()).Str("code", payload.SessionCode).Str("name", payload.Name).Msg("session:join")
		io.BroadcastToRoom("/", payload.SessionCode, "session:roster", map[string]any{
			"teamMembers": sess.Discussion().TeamMembers,
		})
		return map[string]any{"ok": true}
	})

	// session:start (host)
	io.OnEvent("/", "session:start", func(s socketio.Conn) map[string]any {
		sess, ok := srv.hostSession(s)
		if !ok {
			return srv.err(s, "unauthorized", "Host token required")
		}
		st := sess.Start()
		log.Info().Str("code", sess.Code).Msg("session:start")
		srv.announceRound(io, sess)
		return map[string]any{"state": st}
	})

	// discussion:notes
	io.OnEvent("/", "discussion:notes", func(s socketio.Conn, payload struct {
		Text string `json:"text"`
	}) map[string]any {
		sess, err := srv.session(s)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		sess.Dispatch(game.Event{Type: game.EventSetNotes, Value: payload.Text})
		return map[string]any{"ok": true}
	})

	// discussion:transcript
	io.OnEvent("/", "discussion:transcript", func(s socketio.Conn, payload struct {
		Text string `json:"text"`
	}) map[string]any {
		sess, err := srv.session(s)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		sess.SetTranscript(payload.Text)
		return map[string]any{"ok": true}
	})

	// discussion:speaker
	io.OnEvent("/", "discussion:speaker", func(s socketio.Conn, payload struct {
		Name string `json:"name"`
	}) map[string]any {
		sess, err := srv.session(s)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		sess.Dispatch(game.Event{Type: game.EventSetPlayer, Value: payload.Name})
		return map[string]any{"ok": true}
	})

	// discussion:analyze — analysis runs in the background; the session
	// broadcasts discussion:analysis when (and only if) the result still
	// belongs to the current round.
	io.OnEvent("/", "discussion:analyze", func(s socketio.Conn) map[string]any {
		sess, err := srv.session(s)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		go func() {
			if _, err := sess.RequestAnalysis(context.Background()); err != nil {
				log.Debug().Err(err).Str("code", sess.Code).Msg("analysis not committed")
			}
		}()
		return map[string]any{"ok": true}
	})

	// answer:submit — resolution happens in the background; feedback is
	// broadcast as answer:feedback once the verdict is in.
	io.OnEvent("/", "answer:submit", func(s socketio.Conn, payload struct {
		Text   string `json:"text"`
		Player string `json:"player"`
	}) map[string]any {
		sess, err := srv.session(s)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		go func() {
			if _, err := sess.SubmitAnswer(context.Background(), payload.Text, payload.Player); err != nil {
				log.Warn().Err(err).Str("code", sess.Code).Msg("answer rejected")
				io.BroadcastToRoom("/", sess.Code, "answer:rejected", map[string]any{"reason": err.Error()})
			}
		}()
		return map[string]any{"ok": true}
	})

	// round:hint
	io.OnEvent("/", "round:hint", func(s socketio.Conn) map[string]any {
		sess, err := srv.session(s)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		q, ok := sess.CurrentQuestion()
		if !ok || srv.hints == nil {
			return srv.err(s, "bad_request", "No hint available")
		}
		go func() {
			hint, err := srv.hints.Hint(context.Background(), q.Question, q.CorrectAnswer)
			if err != nil {
				log.Warn().Err(err).Str("code", sess.Code).Msg("hint generation failed")
				return
			}
			io.BroadcastToRoom("/", sess.Code, "round:hint", map[string]any{"hint": hint})
		}()
		return map[string]any{"ok": true}
	})

	// round:next (host)
	io.OnEvent("/", "round:next", func(s socketio.Conn) map[string]any {
		sess, ok := srv.hostSession(s)
		if !ok {
			return srv.err(s, "unauthorized", "Host token required")
		}
		st, done := sess.NextRound()
		if done {
			summary := game.Aggregate(sess.Rounds(), nil)
			io.BroadcastToRoom("/", sess.Code, "session:completed", map[string]any{"summary": summary})
			if srv.config.ExportEnabled {
				if err := game.ExportSession(sess, summary, srv.config.ExportFile); err != nil {
					log.Error().Err(err).Str("code", sess.Code).Msg("failed to export session results")
				} else {
					log.Info().Str("code", sess.Code).Str("file", srv.config.ExportFile).Msg("exported session results")
				}
			}
			sess.Close()
			return map[string]any{"state": st, "completed": true}
		}
		srv.announceRound(io, sess)
		return map[string]any{"state": st, "completed": false}
	})

	// phase:set (host) — moves the session into the reading, media or
	// discussion phase for questions that carry prelude material.
	io.OnEvent("/", "phase:set", func(s socketio.Conn, payload struct {
		Phase string `json:"phase"`
	}) map[string]any {
		sess, ok := srv.hostSession(s)
		if !ok {
			return srv.err(s, "unauthorized", "Host token required")
		}
		var ev game.EventType
		switch payload.Phase {
		case string(game.PhaseReading):
			ev = game.EventStartReading
		case string(game.PhaseMediaPlayback):
			ev = game.EventStartMedia
		case string(game.PhaseDiscussion):
			ev = game.EventStartDiscussion
		default:
			return srv.err(s, "bad_request", "Unknown phase")
		}
		st := sess.Dispatch(game.Event{Type: ev, RoundTime: sess.Config.RoundTime})
		return map[string]any{"state": st}
	})

	// round:reset (host)
	io.OnEvent("/", "round:reset", func(s socketio.Conn) map[string]any {
		sess, ok := srv.hostSession(s)
		if !ok {
			return srv.err(s, "unauthorized", "Host token required")
		}
		st := sess.Dispatch(game.Event{Type: game.EventResetRound})
		return map[string]any{"state": st}
	})

	// session:state
	io.OnEvent("/", "session:state", func(s socketio.Conn) map[string]any {
		sess, err := srv.session(s)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		return map[string]any{
			"state":      sess.Snapshot(),
			"discussion": sess.Discussion(),
			"rounds":     sess.Rounds(),
		}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	// Mount to router
	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// announceRound broadcasts the intro and difficulty for the current
// question, best-effort in the background.
func (srv *Server) announceRound(io *socketio.Server, sess *game.Session) {
	q, ok := sess.CurrentQuestion()
	if !ok {
		return
	}
	roundNumber := sess.Snapshot().CurrentRoundIndex + 1
	go func() {
		payload := map[string]any{"round": roundNumber, "question": q.Question, "topic": q.Topic}
		if srv.analyzer != nil {
			payload["difficulty"] = srv.analyzer.ClassifyDifficulty(context.Background(), q.Question, q.CorrectAnswer)
		}
		if srv.intros != nil {
			if intro, err := srv.intros.Intro(context.Background(), roundNumber, q.Topic); err == nil {
				payload["intro"] = intro
			} else {
				log.Warn().Err(err).Str("code", sess.Code).Msg("intro generation failed")
			}
		}
		io.BroadcastToRoom("/", sess.Code, "round:intro", payload)
	}()
}

func (srv *Server) session(s socketio.Conn) (*game.Session, error) {
	ctx, _ := s.Context().(*ConnCtx)
	if ctx == nil {
		return nil, game.ErrSessionNotFound
	}
	return srv.SM.Get(ctx.Code)
}

func (srv *Server) hostSession(s socketio.Conn) (*game.Session, bool) {
	sess, err := srv.session(s)
	if err != nil {
		return nil, false
	}
	ctx, _ := s.Context().(*ConnCtx)
	if ctx == nil || ctx.Role != "host" || sess.AuthorizeHost(ctx.Token) != nil {
		return nil, false
	}
	return sess, true
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}
