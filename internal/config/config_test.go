package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type validateCase struct {
	name    string
	modify  func(*Config)
	wantErr string
}

// validConfig returns a minimal Config that passes Validate().
func validConfig() Config {
	return Config{
		TMDb: TMDbConfig{APIKey: "tmdb-token"},
		App:  AppConfig{LogLevel: "info", DataDir: "/tmp/test"},
	}
}

func TestValidate_CoreFields(t *testing.T) {
	t.Parallel()

	tests := []validateCase{
		{"valid_minimal", nil, ""},
		{"missing_tmdb_key", func(c *Config) { c.TMDb.APIKey = "" }, "tmdb.api_key is required"},
		{"base_url_invalid_scheme", func(c *Config) {
			c.TMDb.BaseURL = "ftp://api.themoviedb.org/3"
		}, "must use http or https"},
		{"base_url_no_host", func(c *Config) { c.TMDb.BaseURL = "http://" }, "missing host"},
		{"negative_timeout", func(c *Config) { c.TMDb.Timeout = -time.Second }, "tmdb.timeout must not be negative"},
		{"negative_attempts", func(c *Config) { c.TMDb.MaxAttempts = -1 }, "tmdb.max_attempts must be at least 1"},
		{"retry_enabled", func(c *Config) { c.TMDb.MaxAttempts = 3 }, ""},
		{"invalid_log_level", func(c *Config) { c.App.LogLevel = "trace" }, "app.log_level must be one of"},
		{"warning_accepted", func(c *Config) { c.App.LogLevel = "warning" }, ""},
	}

	runValidateTests(t, tests)
}

func TestValidate_Sections(t *testing.T) {
	t.Parallel()

	tests := []validateCase{
		{"unknown_driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver must be"},
		{"postgres_requires_dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.dsn is required"},
		{"postgres_valid", func(c *Config) {
			c.Storage = StorageConfig{Driver: "postgres", DSN: "postgres://localhost/cineshelf?sslmode=disable"}
		}, ""},
		{"negative_debounce", func(c *Config) { c.Browse.Debounce = -1 }, "browse.debounce must be"},
		{"negative_min_query", func(c *Config) { c.Browse.MinQueryLength = -2 }, "browse.min_query_length"},
		{"negative_concurrency", func(c *Config) { c.Details.CreditConcurrency = -1 }, "details.credit_concurrency"},
		{"negative_top_n", func(c *Config) { c.Details.TopN = -5 }, "details.top_n"},
		{"telegram_missing_token", func(c *Config) {
			c.Telegram = &TelegramConfig{}
		}, "telegram.bot_token is required"},
		{"telegram_valid", func(c *Config) {
			c.Telegram = &TelegramConfig{BotToken: "123:ABC", AllowedUserIDs: []int64{42}}
		}, ""},
	}

	runValidateTests(t, tests)
}

func runValidateTests(t *testing.T, tests []validateCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			if tt.modify != nil {
				tt.modify(&cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"valid_https", "https://api.themoviedb.org/3", ""},
		{"valid_http_local", "http://localhost:8080", ""},
		{"ftp_scheme", "ftp://localhost", "must use http or https"},
		{"no_scheme", "localhost:8080", "must use http or https"},
		{"empty_string", "", "must use http or https"},
		{"missing_host", "http://", "missing host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateURL(tt.url, "test.url")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	t.Parallel()

	t.Run("zero_config", func(t *testing.T) {
		t.Parallel()
		cfg := Config{App: AppConfig{DataDir: "/data"}}
		cfg.setDefaults()
		if cfg.TMDb.BaseURL != DefaultBaseURL {
			t.Errorf("expected default base URL, got %q", cfg.TMDb.BaseURL)
		}
		if cfg.TMDb.Language != "en-US" {
			t.Errorf("expected en-US, got %q", cfg.TMDb.Language)
		}
		if cfg.TMDb.MaxAttempts != 1 {
			t.Errorf("retry must be off by default, got %d attempts", cfg.TMDb.MaxAttempts)
		}
		if cfg.Browse.Debounce != 300*time.Millisecond {
			t.Errorf("expected 300ms debounce, got %v", cfg.Browse.Debounce)
		}
		if cfg.Browse.MinQueryLength != 3 {
			t.Errorf("expected min query length 3, got %d", cfg.Browse.MinQueryLength)
		}
		if cfg.Details.CreditConcurrency != 1 || cfg.Details.TopN != 5 {
			t.Errorf("unexpected details defaults: %+v", cfg.Details)
		}
		if cfg.Storage.Driver != "sqlite3" {
			t.Errorf("expected sqlite3, got %q", cfg.Storage.Driver)
		}
		if cfg.Storage.DSN != filepath.Join("/data", "watchlist.db") {
			t.Errorf("unexpected sqlite DSN %q", cfg.Storage.DSN)
		}
	})

	t.Run("negative_preserved", func(t *testing.T) {
		t.Parallel()
		cfg := Config{Details: DetailsConfig{TopN: -1}}
		cfg.setDefaults()
		if cfg.Details.TopN != -1 {
			t.Errorf("expected negative top_n preserved, got %d", cfg.Details.TopN)
		}
	})

	t.Run("data_dir_default", func(t *testing.T) {
		t.Parallel()
		cfg := Config{}
		cfg.setDefaults()
		if !strings.HasSuffix(cfg.App.DataDir, ".cineshelf") {
			t.Errorf("expected DataDir ending in .cineshelf, got %q", cfg.App.DataDir)
		}
		if cfg.App.LogLevel != "info" {
			t.Errorf("expected default log level 'info', got %q", cfg.App.LogLevel)
		}
	})

	t.Run("postgres_dsn_untouched", func(t *testing.T) {
		t.Parallel()
		cfg := Config{Storage: StorageConfig{Driver: "postgres"}}
		cfg.setDefaults()
		if cfg.Storage.DSN != "" {
			t.Errorf("postgres DSN must not be defaulted, got %q", cfg.Storage.DSN)
		}
	})
}

func TestLoad_ValidMinimal(t *testing.T) {
	t.Parallel()
	path := writeTempYAML(t, minimalYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TMDb.APIKey != "yaml-token" {
		t.Errorf("expected yaml-token, got %q", cfg.TMDb.APIKey)
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.App.LogLevel)
	}
	if cfg.Telegram != nil {
		t.Error("telegram should stay disabled")
	}
}

func TestLoad_Full(t *testing.T) {
	fullYAML := `
tmdb:
  api_key: token
  base_url: http://localhost:9999/3
  language: de-DE
  timeout: 5s
  max_attempts: 3
storage:
  driver: postgres
  dsn: postgres://localhost/cineshelf
browse:
  debounce: 150ms
  min_query_length: 2
details:
  credit_concurrency: 4
  top_n: 10
telegram:
  bot_token: "123:ABC"
  allowed_user_ids: [1, 2]
app:
  log_level: debug
  data_dir: /var/lib/cineshelf
`
	path := writeTempYAML(t, fullYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TMDb.Timeout != 5*time.Second || cfg.TMDb.MaxAttempts != 3 {
		t.Errorf("unexpected tmdb section: %+v", cfg.TMDb)
	}
	if cfg.Browse.Debounce != 150*time.Millisecond || cfg.Browse.MinQueryLength != 2 {
		t.Errorf("unexpected browse section: %+v", cfg.Browse)
	}
	if cfg.Details.CreditConcurrency != 4 || cfg.Details.TopN != 10 {
		t.Errorf("unexpected details section: %+v", cfg.Details)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("unexpected storage section: %+v", cfg.Storage)
	}
	if cfg.Telegram == nil || len(cfg.Telegram.AllowedUserIDs) != 2 {
		t.Errorf("unexpected telegram section: %+v", cfg.Telegram)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid_yaml", func(t *testing.T) {
		t.Parallel()
		path := writeTempYAML(t, "{{invalid yaml}}")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("file_not_found", func(t *testing.T) {
		t.Parallel()
		_, err := Load("/nonexistent/path/config.yaml")
		if err == nil || !strings.Contains(err.Error(), "config file not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("path_is_directory", func(t *testing.T) {
		t.Parallel()
		_, err := Load(t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "directory") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid_values", func(t *testing.T) {
		t.Parallel()
		path := writeTempYAML(t, "tmdb:\n  api_key: x\nstorage:\n  driver: oracle\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("api_key_override", func(t *testing.T) {
		path := writeTempYAML(t, minimalYAML)
		t.Setenv("CINESHELF_TMDB_API_KEY", "env-token")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.TMDb.APIKey != "env-token" {
			t.Errorf("expected env-token, got %q", cfg.TMDb.APIKey)
		}
	})

	t.Run("storage_override", func(t *testing.T) {
		path := writeTempYAML(t, minimalYAML)
		t.Setenv("CINESHELF_STORAGE_DRIVER", "postgres")
		t.Setenv("CINESHELF_STORAGE_DSN", "postgres://db/cineshelf")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN != "postgres://db/cineshelf" {
			t.Errorf("unexpected storage: %+v", cfg.Storage)
		}
	})

	t.Run("invalid_debounce", func(t *testing.T) {
		path := writeTempYAML(t, minimalYAML)
		t.Setenv("CINESHELF_BROWSE_DEBOUNCE", "soon")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "browse.debounce") {
			t.Errorf("expected debounce validation error, got %v", err)
		}
	})

	t.Run("log_level_override", func(t *testing.T) {
		path := writeTempYAML(t, minimalYAML)
		t.Setenv("CINESHELF_LOG_LEVEL", "debug")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.App.LogLevel != "debug" {
			t.Errorf("expected debug, got %q", cfg.App.LogLevel)
		}
	})

	t.Run("telegram_created_from_env", func(t *testing.T) {
		path := writeTempYAML(t, minimalYAML)
		t.Setenv("CINESHELF_TELEGRAM_BOT_TOKEN", "123:TOKEN")
		t.Setenv("CINESHELF_TELEGRAM_ALLOWED_USER_IDS", "10, 20,bogus")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Telegram == nil || cfg.Telegram.BotToken != "123:TOKEN" {
			t.Fatal("expected telegram created from env")
		}
		if len(cfg.Telegram.AllowedUserIDs) != 2 || cfg.Telegram.AllowedUserIDs[1] != 20 {
			t.Errorf("unexpected allowed ids: %v", cfg.Telegram.AllowedUserIDs)
		}
	})
}

func TestApplyTelegramEnv(t *testing.T) {
	t.Run("nil_no_env", func(t *testing.T) {
		if applyTelegramEnv(nil, "CINESHELF_TEST1_TOKEN", "CINESHELF_TEST1_USERS") != nil {
			t.Error("expected nil when no env vars set")
		}
	})

	t.Run("users_alone_do_not_enable", func(t *testing.T) {
		t.Setenv("CINESHELF_TEST2_USERS", "1")
		if applyTelegramEnv(nil, "CINESHELF_TEST2_TOKEN", "CINESHELF_TEST2_USERS") != nil {
			t.Error("expected nil without a token")
		}
	})

	t.Run("existing_partial_override", func(t *testing.T) {
		t.Setenv("CINESHELF_TEST3_USERS", "7")
		existing := &TelegramConfig{BotToken: "keep", AllowedUserIDs: []int64{1}}
		result := applyTelegramEnv(existing, "CINESHELF_TEST3_TOKEN", "CINESHELF_TEST3_USERS")
		if result.BotToken != "keep" {
			t.Errorf("expected token preserved, got %q", result.BotToken)
		}
		if len(result.AllowedUserIDs) != 1 || result.AllowedUserIDs[0] != 7 {
			t.Errorf("expected [7], got %v", result.AllowedUserIDs)
		}
	})
}

func TestValidateConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("valid_file", func(t *testing.T) {
		t.Parallel()
		if err := validateConfigPath(writeTempYAML(t, "test")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()
		err := validateConfigPath("/nonexistent/file.yaml")
		if err == nil || !strings.Contains(err.Error(), "config file not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := setupLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", slog.Int("movie_id", 7))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"movie_id":7`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLoggerContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if LoggerFromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if LoggerFromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
}

const minimalYAML = `
tmdb:
  api_key: yaml-token
`

// writeTempYAML creates a temporary YAML file and returns its path.
func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp yaml: %v", err)
	}
	return path
}
