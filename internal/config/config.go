package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind-address configuration.
type Paths struct {
	// WorkDir is the parent of per-job scratch directories. Each job gets an
	// exclusively owned subdirectory that is removed when the job ends.
	WorkDir string `toml:"work_dir"`
	// UploadDir holds uploaded audio awaiting a job; each upload gets its own
	// subdirectory so the owning job's cleanup covers it.
	UploadDir string `toml:"upload_dir"`
	LogDir    string `toml:"log_dir"`
	// DBPath is the sqlite job ledger location. Empty selects log_dir/jobs.db.
	DBPath  string `toml:"db_path"`
	APIBind string `toml:"api_bind"`
}

// Tools maps each pipeline stage to the command invoked for it. Each value is
// an argv prefix; stage-specific arguments are appended at invocation time.
// Empty values resolve to the bundled podscribe-worker binary, except
// recognize which defaults to the podscribe-whisper wrapper expected on PATH.
type Tools struct {
	Metadata  []string `toml:"metadata"`
	Acquire   []string `toml:"acquire"`
	Recognize []string `toml:"recognize"`
	Summarize []string `toml:"summarize"`
}

// Pipeline contains stage timeout and stall-detection settings. All values
// are in seconds.
type Pipeline struct {
	MetadataTimeout  int `toml:"metadata_timeout"`
	AcquireTimeout   int `toml:"acquire_timeout"`
	RecognizeTimeout int `toml:"recognize_timeout"`
	SummarizeTimeout int `toml:"summarize_timeout"`
	// StallWindow is the maximum gap between progress events before a live
	// stage is declared hung. Applies only to stages that stream progress.
	StallWindow int `toml:"stall_window"`
	// StallCheckInterval is how often the watchdog re-evaluates the stall window.
	StallCheckInterval int `toml:"stall_check_interval"`
	// DefaultEngine and DefaultModelSize fill request fields the client omits.
	DefaultEngine    string `toml:"default_engine"`
	DefaultModelSize string `toml:"default_model_size"`
}

// Upload contains upload endpoint limits.
type Upload struct {
	MaxMiB int `toml:"max_mib"`
}

// Metadata contains settings for the bundled metadata/acquisition tooling.
type Metadata struct {
	RequestTimeout int    `toml:"request_timeout"`
	UserAgent      string `toml:"user_agent"`
	RSSGatewayURL  string `toml:"rss_gateway_url"`
	ITunesSearchURL string `toml:"itunes_search_url"`
}

// Summary contains LLM connection settings for the summarize tool. The API
// key is optional; local servers accept anonymous requests. When no base URL
// is configured the tool falls back to extractive summarization.
type Summary struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxSentences   int    `toml:"max_sentences"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobComplete    bool   `toml:"job_complete"`
	JobFailed      bool   `toml:"job_failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for podscribe.
//
// Configuration sections by subsystem:
//   - Paths: scratch/upload/log directories, ledger path, API bind address
//   - Tools: per-stage external commands
//   - Pipeline: stage timeouts, stall detection, request defaults
//   - Upload: upload size limits
//   - Metadata: bundled metadata/acquisition tool settings
//   - Summary: LLM connection for the summarize tool
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Upload        Upload        `toml:"upload"`
	Metadata      Metadata      `toml:"metadata"`
	Summary       Summary       `toml:"summary"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podscribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podscribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.UploadDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the sqlite ledger location.
func (c *Config) DatabasePath() string {
	if strings.TrimSpace(c.Paths.DBPath) != "" {
		return c.Paths.DBPath
	}
	return filepath.Join(c.Paths.LogDir, "jobs.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
