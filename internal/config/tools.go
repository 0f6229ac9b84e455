package config

const workerBinary = "podscribe-worker"

// MetadataCommand returns the argv prefix for the metadata stage tool.
func (c *Config) MetadataCommand() []string {
	if len(c.Tools.Metadata) > 0 {
		return c.Tools.Metadata
	}
	return []string{workerBinary, "metadata"}
}

// AcquireCommand returns the argv prefix for the audio acquisition tool.
func (c *Config) AcquireCommand() []string {
	if len(c.Tools.Acquire) > 0 {
		return c.Tools.Acquire
	}
	return []string{workerBinary, "fetch"}
}

// RecognizeCommand returns the argv prefix for the speech recognition tool.
func (c *Config) RecognizeCommand() []string {
	if len(c.Tools.Recognize) > 0 {
		return c.Tools.Recognize
	}
	return []string{"podscribe-whisper"}
}

// SummarizeCommand returns the argv prefix for the summarization tool.
func (c *Config) SummarizeCommand() []string {
	if len(c.Tools.Summarize) > 0 {
		return c.Tools.Summarize
	}
	return []string{workerBinary, "summarize"}
}
