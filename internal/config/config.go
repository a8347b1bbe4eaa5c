package config

import (
	"os"
	"strconv"
)

// Config is read once at startup and treated as immutable afterwards; the
// AI-related values are handed to the arbiter and analyzer at construction.
type Config struct {
	Port            string
	AIEnabled       bool
	DefaultProvider string
	DefaultModel    string
	Temperature     float64
	MaxTokens       int
	Language        string
	RoundTime       int // seconds per discussion period
	OpenAIKey       string
	OpenAIBaseURL   string
	OllamaHost      string
	ExportEnabled   bool
	ExportFile      string
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.AIEnabled = getenvBool("AI_ENABLED", true)
	c.DefaultProvider = getenv("DEFAULT_PROVIDER", "openai")
	c.DefaultModel = getenv("DEFAULT_MODEL", "gpt-4o-mini")
	c.Temperature = getenvFloat("AI_TEMPERATURE", 0.3)
	c.MaxTokens = getenvInt("AI_MAX_TOKENS", 500)
	c.Language = getenv("LANGUAGE", "en")
	c.RoundTime = getenvInt("ROUND_TIME", 60)
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.OllamaHost = getenv("OLLAMA_HOST", "http://localhost:11434")
	c.ExportEnabled = getenvBool("EXPORT_ENABLED", false)
	c.ExportFile = getenv("EXPORT_FILE", "./trivia-results.txt")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
