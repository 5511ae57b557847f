package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/lawflow-backend/internal/data/db"
	"github.com/yungbote/lawflow-backend/internal/observability"
	"github.com/yungbote/lawflow-backend/internal/platform/envutil"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
	"github.com/yungbote/lawflow-backend/internal/platform/notion"
)

type Config struct {
	Port        string
	CORSOrigins []string

	DB db.Config

	Notion            notion.Config
	DefaultDatabaseID string

	PromptTemplateDir string

	Otel observability.OtelConfig
}

// LoadDotEnv reads .env.local then .env, never overriding variables that
// are already set. Missing files are ignored.
func LoadDotEnv() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port: envutil.String("PORT", "8080", log),
		DB: db.Config{
			Driver:      envutil.String("DB_DRIVER", db.DriverSQLite, log),
			SQLitePath:  envutil.String("SQLITE_PATH", "data/lawflow.db", log),
			PostgresDSN: envutil.String("POSTGRES_DSN", "", nil),
		},
		Notion: notion.Config{
			Token:      envutil.String("NOTION_TOKEN", "", nil),
			BaseURL:    envutil.String("NOTION_API_BASE_URL", notion.DefaultBaseURL, log),
			Version:    envutil.String("NOTION_VERSION", notion.DefaultVersion, log),
			Timeout:    envutil.Duration("NOTION_TIMEOUT", 60*time.Second, log),
			MaxRetries: envutil.Int("NOTION_MAX_RETRIES", 3, log),
		},
		DefaultDatabaseID: envutil.String("DEFAULT_NOTION_DATABASE_ID", "", log),
		PromptTemplateDir: envutil.String("PROMPT_TEMPLATE_DIR", "", log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "lawflow-backend", log),
			Environment: envutil.String("APP_ENV", "development", log),
			Version:     envutil.String("APP_VERSION", "dev", log),
			Exporter:    envutil.String("OTEL_EXPORTER", "stdout", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", nil)),
			SampleRatio: float64(envutil.Int("OTEL_SAMPLE_PERCENT", 100, log)) / 100,
		},
	}
	for _, o := range strings.Split(envutil.String("CORS_ALLOWED_ORIGINS", "", log), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg
}
