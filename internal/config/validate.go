package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// RecognitionEngines lists the accepted recognition engine names.
var RecognitionEngines = []string{"faster", "openai"}

// ModelSizes lists the accepted recognition model sizes.
var ModelSizes = []string{"tiny", "base", "small", "medium", "large"}

// ValidEngine reports whether name is an accepted recognition engine.
func ValidEngine(name string) bool {
	for _, engine := range RecognitionEngines {
		if name == engine {
			return true
		}
	}
	return false
}

// ValidModelSize reports whether name is an accepted model size.
func ValidModelSize(name string) bool {
	for _, size := range ModelSizes {
		if name == size {
			return true
		}
	}
	return false
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateSummary(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.UploadDir == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be a host:port address: %w", err)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.metadata_timeout":     c.Pipeline.MetadataTimeout,
		"pipeline.acquire_timeout":      c.Pipeline.AcquireTimeout,
		"pipeline.recognize_timeout":    c.Pipeline.RecognizeTimeout,
		"pipeline.summarize_timeout":    c.Pipeline.SummarizeTimeout,
		"pipeline.stall_window":         c.Pipeline.StallWindow,
		"pipeline.stall_check_interval": c.Pipeline.StallCheckInterval,
	}); err != nil {
		return err
	}
	if c.Pipeline.StallCheckInterval > c.Pipeline.StallWindow {
		return errors.New("pipeline.stall_check_interval must not exceed pipeline.stall_window")
	}
	if !ValidEngine(c.Pipeline.DefaultEngine) {
		return fmt.Errorf("pipeline.default_engine must be one of %s", strings.Join(RecognitionEngines, ", "))
	}
	if !ValidModelSize(c.Pipeline.DefaultModelSize) {
		return fmt.Errorf("pipeline.default_model_size must be one of %s", strings.Join(ModelSizes, ", "))
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxMiB <= 0 {
		return errors.New("upload.max_mib must be positive")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if c.Metadata.RequestTimeout <= 0 {
		return errors.New("metadata.request_timeout must be positive (seconds)")
	}
	if strings.TrimSpace(c.Metadata.RSSGatewayURL) == "" {
		return errors.New("metadata.rss_gateway_url must be set")
	}
	if strings.TrimSpace(c.Metadata.ITunesSearchURL) == "" {
		return errors.New("metadata.itunes_search_url must be set")
	}
	return nil
}

func (c *Config) validateSummary() error {
	if c.Summary.TimeoutSeconds <= 0 {
		return errors.New("summary.timeout_seconds must be positive")
	}
	if c.Summary.MaxSentences < 1 {
		return errors.New("summary.max_sentences must be >= 1")
	}
	if c.Summary.APIKey != "" && strings.TrimSpace(c.Summary.BaseURL) == "" {
		return errors.New("summary.base_url must be set when summary.api_key is set")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
