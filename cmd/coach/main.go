// Package main boots the coaching API server: it wires the OpenAI client,
// the retrieval index, the session registry, and the snapshot store together
// from environment configuration and command line flags.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/api"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/coach"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/genai"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/lockfile"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/retrieval"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/store"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for coach state data
	DefaultStateDir = "/var/lib/coach"
	// DefaultDBFileName is the default SQLite snapshot database filename
	DefaultDBFileName = "coach.db"
	// DefaultIndexFileName is the default SQLite vector index filename
	DefaultIndexFileName = "index.db"
	// DefaultAPIAddr is the default API listen address
	DefaultAPIAddr = ":8080"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to lock state directory", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	client, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		slog.Error("Failed to create OpenAI client", "error", err)
		os.Exit(1)
	}

	// Retrieval is optional: a missing or unreadable index degrades the
	// service to a no-retrieval mode instead of refusing to start.
	var retriever coach.ContextRetriever
	index, err := retrieval.OpenIndex(retrieval.IndexConfig{DSN: *flags.indexDSN}, client)
	if err != nil {
		slog.Warn("Retrieval index unavailable, running without retrieval", "error", err, "index_dsn", *flags.indexDSN)
	} else {
		defer index.Close()
		retriever = index
		runRetrievalSanityCheck(index)
	}

	var snapshots store.Store
	if *flags.dbDSN != "" {
		snapshots, err = store.NewFromDSN(*flags.dbDSN)
		if err != nil {
			slog.Error("Failed to open snapshot store", "error", err)
			os.Exit(1)
		}
		defer snapshots.Close()
	} else {
		slog.Info("No database DSN provided, snapshot persistence disabled")
	}

	registry := store.NewSessionRegistry(func() *coach.Agent {
		return coach.NewAgent(client, retriever, coach.Config{})
	}, store.RegistryConfig{
		TTL:                  time.Duration(*flags.sessionTTLMinutes) * time.Minute,
		MaxTotalSessions:     *flags.maxSessions,
		MaxSessionsPerAPIKey: *flags.maxSessionsPerKey,
	})

	server := api.NewServer(api.Config{
		Auth:            api.NewAPIKeyAuthFromEnv(),
		Registry:        registry,
		Store:           snapshots,
		MessagesPerHour: *flags.messagesPerHour,
	})

	slog.Info("Bootstrapping coach API", "addr", *flags.apiAddr, "retrieval_enabled", retriever != nil, "persistence_enabled", snapshots != nil)
	if err := server.Run(*flags.apiAddr); err != nil {
		slog.Error("Coach API failed to run", "error", err)
		os.Exit(1)
	}
}

// Config holds environment configuration
type Config struct {
	StateDir     string
	DatabaseURL  string
	IndexDSN     string
	OpenAIKey    string
	APIAddr      string
	SessionTTL   int
	RateLimit    int
	MaxSessions  int
	MaxPerAPIKey int
}

// Flags holds command line flag values
type Flags struct {
	stateDir          *string
	dbDSN             *string
	indexDSN          *string
	openaiKey         *string
	apiAddr           *string
	sessionTTLMinutes *int
	messagesPerHour   *int
	maxSessions       *int
	maxSessionsPerKey *int
}

// initializeLogger sets up structured logging with debug level. Set
// LOG_JSON=true for machine-readable output.
func initializeLogger() {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if util.ParseBoolEnv("LOG_JSON", false) {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:     os.Getenv("COACH_STATE_DIR"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		IndexDSN:     os.Getenv("INDEX_DSN"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		APIAddr:      os.Getenv("API_ADDR"),
		SessionTTL:   intEnv("SESSION_TTL_MINUTES", 90),
		RateLimit:    intEnv("RATE_LIMIT_PER_HOUR", 100),
		MaxSessions:  intEnv("MAX_TOTAL_SESSIONS", store.DefaultMaxTotalSessions),
		MaxPerAPIKey: intEnv("MAX_SESSIONS_PER_API_KEY", store.DefaultMaxSessionsPerAPIKey),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No COACH_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
	}
	if config.IndexDSN == "" {
		config.IndexDSN = filepath.Join(config.StateDir, DefaultIndexFileName)
	}
	if config.APIAddr == "" {
		config.APIAddr = DefaultAPIAddr
	}

	return config
}

// parseCommandLineFlags registers flags with environment-derived defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:          flag.String("state-dir", config.StateDir, "state directory for coach data (overrides $COACH_STATE_DIR)"),
		dbDSN:             flag.String("db-dsn", config.DatabaseURL, "snapshot database DSN, SQLite path or Postgres URL (overrides $DATABASE_URL)"),
		indexDSN:          flag.String("index-dsn", config.IndexDSN, "retrieval index SQLite path (overrides $INDEX_DSN)"),
		openaiKey:         flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:           flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		sessionTTLMinutes: flag.Int("session-ttl", config.SessionTTL, "idle session lifetime in minutes (overrides $SESSION_TTL_MINUTES)"),
		messagesPerHour:   flag.Int("rate-limit", config.RateLimit, "message turns allowed per API key per hour (overrides $RATE_LIMIT_PER_HOUR)"),
		maxSessions:       flag.Int("max-sessions", config.MaxSessions, "global cap on live sessions (overrides $MAX_TOTAL_SESSIONS)"),
		maxSessionsPerKey: flag.Int("max-sessions-per-key", config.MaxPerAPIKey, "per-API-key cap on live sessions (overrides $MAX_SESSIONS_PER_API_KEY)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"indexDSN", *flags.indexDSN,
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"sessionTTLMinutes", *flags.sessionTTLMinutes,
		"messagesPerHour", *flags.messagesPerHour)

	// Retarget file-backed defaults when the state directory flag moved.
	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		if *flags.indexDSN == filepath.Join(config.StateDir, DefaultIndexFileName) {
			*flags.indexDSN = filepath.Join(*flags.stateDir, DefaultIndexFileName)
		}
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	for _, dsn := range []string{*flags.dbDSN, *flags.indexDSN} {
		if dsn == "" || store.DetectDSNType(dsn) == "postgres" {
			continue
		}
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", dir)
			return err
		}
	}
	return nil
}

// runRetrievalSanityCheck queries the master index once so an empty or
// mis-dimensioned index is reported at boot instead of on the first user turn.
func runRetrievalSanityCheck(index *retrieval.Index) {
	label, err := index.SanityCheck(context.Background())
	switch {
	case err != nil:
		slog.Warn("Retrieval sanity check failed", "error", err)
	case label == "":
		slog.Warn("Retrieval sanity check returned no slides; was the index ingested?")
	default:
		slog.Info("Retrieval sanity check passed", "top_slide", label)
	}
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if model := os.Getenv("OPENAI_CHAT_MODEL"); model != "" {
		genaiOpts = append(genaiOpts, genai.WithChatModel(model))
	}
	if model := os.Getenv("OPENAI_EMBEDDING_MODEL"); model != "" {
		genaiOpts = append(genaiOpts, genai.WithEmbeddingModel(model))
	}
	return genaiOpts
}

// intEnv reads an integer environment variable, falling back on defaultValue
// when unset or malformed.
func intEnv(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer environment variable, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}
