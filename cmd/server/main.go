package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	"github.com/triviahuddle/backend/internal/ai"
	"github.com/triviahuddle/backend/internal/ai/ollama"
	"github.com/triviahuddle/backend/internal/ai/openai"
	"github.com/triviahuddle/backend/internal/analysis"
	"github.com/triviahuddle/backend/internal/arbiter"
	"github.com/triviahuddle/backend/internal/config"
	"github.com/triviahuddle/backend/internal/game"
	"github.com/triviahuddle/backend/internal/messages"
	"github.com/triviahuddle/backend/internal/ws"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`TriviaHuddle - team trivia session engine

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                Port to listen on (default: 8080)
  AI_ENABLED          Enable the semantic oracle (default: true)
  DEFAULT_PROVIDER    AI provider: "openai" or "ollama" (default: openai)
  DEFAULT_MODEL       AI model to use (default: gpt-4o-mini)
  AI_TEMPERATURE      Sampling temperature (default: 0.3)
  AI_MAX_TOKENS       Completion token budget (default: 500)
  LANGUAGE            Language tag passed to the oracle (default: en)
  ROUND_TIME          Discussion seconds per round (default: 60)
  OPENAI_API_KEY      OpenAI API key (oracle disabled without it)
  OPENAI_BASE_URL     Custom OpenAI-compatible base URL (optional)
  OLLAMA_HOST         Ollama host URL (default: http://localhost:11434)
  EXPORT_ENABLED      Export session results to file (default: false)
  EXPORT_FILE         Path for exported results (default: ./trivia-results.txt)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("TriviaHuddle %s\n", version)
		return
	}

	// .env is optional
	_ = godotenv.Load()

	// Determine port
	port := *portFlag
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8080"
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Config
	cfg := config.FromEnv()

	// Oracle provider. A missing credential leaves the provider nil and
	// every component on its local path.
	var provider ai.Provider
	switch strings.ToLower(cfg.DefaultProvider) {
	case "ollama":
		ol := ollama.New(cfg.OllamaHost)
		ol.Temperature = cfg.Temperature
		ol.MaxTokens = cfg.MaxTokens
		provider = ol
	default:
		if cfg.OpenAIKey != "" {
			oa := openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL)
			oa.Temperature = cfg.Temperature
			oa.MaxTokens = cfg.MaxTokens
			provider = oa
		} else {
			zerologlog.Warn().Msg("no OPENAI_API_KEY configured, running with local heuristics only")
		}
	}
	if !cfg.AIEnabled {
		provider = nil
	}

	catalog := messages.Default()
	arb := arbiter.New(provider, cfg.DefaultModel, cfg.Language, cfg.AIEnabled)
	analyzer := analysis.New(provider, cfg.DefaultModel, catalog)

	var hints analysis.HintGenerator = analysis.LocalHintGenerator{Catalog: catalog}
	var intros analysis.IntroGenerator = analysis.LocalIntroGenerator{Catalog: catalog}
	if provider != nil {
		hints = analysis.OracleHintGenerator{Provider: provider, Model: cfg.DefaultModel}
		intros = analysis.OracleIntroGenerator{Provider: provider, Model: cfg.DefaultModel}
	}

	// Session manager + socket transport
	sm := game.NewSessionManager(arb, analyzer)
	sock := ws.New(sm, cfg)
	sock.SetAnalyzer(analyzer)
	sock.SetHintGenerator(hints)
	sock.SetIntroGenerator(intros)
	io := sock.Mount(r)
	defer io.Close()

	// Minimal REST API for clients that prefer it over the socket
	type createReq struct {
		Config    game.SessionConfig `json:"config"`
		Questions []game.Question    `json:"questions"`
	}
	r.POST("/api/session", func(c *gin.Context) {
		var req createReq
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
			return
		}
		if req.Config.RoundTime == 0 {
			req.Config.RoundTime = cfg.RoundTime
		}
		sess, err := sm.CreateSession(req.Config, req.Questions)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessionCode": sess.Code, "hostToken": sess.HostToken})
	})
	r.GET("/api/session/:code", func(c *gin.Context) {
		sess, err := sm.Get(c.Param("code"))
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"state":      sess.Snapshot(),
			"discussion": sess.Discussion(),
			"rounds":     sess.Rounds(),
		})
	})

	zerologlog.Info().Str("port", port).Msg("listening")
	if err := r.Run(":" + port); err != nil {
		zerologlog.Fatal().Err(err).Msg("server exited")
	}
}
