package config

import (
	"os"
	"strings"
)

// normalize expands paths, applies environment fallbacks, and canonicalizes
// string fields after decoding.
func (c *Config) normalize() error {
	pathFields := []*string{
		&c.Paths.WorkDir,
		&c.Paths.UploadDir,
		&c.Paths.LogDir,
	}
	for _, field := range pathFields {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	if strings.TrimSpace(c.Paths.DBPath) != "" {
		expanded, err := expandPath(c.Paths.DBPath)
		if err != nil {
			return err
		}
		c.Paths.DBPath = expanded
	}

	c.Tools.Metadata = trimArgs(c.Tools.Metadata)
	c.Tools.Acquire = trimArgs(c.Tools.Acquire)
	c.Tools.Recognize = trimArgs(c.Tools.Recognize)
	c.Tools.Summarize = trimArgs(c.Tools.Summarize)

	c.Pipeline.DefaultEngine = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultEngine))
	c.Pipeline.DefaultModelSize = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultModelSize))

	if strings.TrimSpace(c.Summary.APIKey) == "" {
		if envKey := strings.TrimSpace(os.Getenv("PODSCRIBE_LLM_API_KEY")); envKey != "" {
			c.Summary.APIKey = envKey
		}
	}
	if strings.TrimSpace(c.Notifications.NtfyTopic) == "" {
		if envTopic := strings.TrimSpace(os.Getenv("PODSCRIBE_NTFY_TOPIC")); envTopic != "" {
			c.Notifications.NtfyTopic = envTopic
		}
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}

func trimArgs(args []string) []string {
	trimmed := make([]string, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		trimmed = append(trimmed, arg)
	}
	if len(trimmed) == 0 {
		return nil
	}
	return trimmed
}
