package config

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   "~/.local/share/podscribe/work",
			UploadDir: "~/.local/share/podscribe/uploads",
			LogDir:    "~/.local/share/podscribe/logs",
			APIBind:   "127.0.0.1:8765",
		},
		Tools: Tools{},
		Pipeline: Pipeline{
			MetadataTimeout:    60,
			AcquireTimeout:     300,
			RecognizeTimeout:   1800,
			SummarizeTimeout:   300,
			StallWindow:        120,
			StallCheckInterval: 15,
			DefaultEngine:      "faster",
			DefaultModelSize:   "base",
		},
		Upload: Upload{
			MaxMiB: 1536,
		},
		Metadata: Metadata{
			RequestTimeout:  30,
			UserAgent:       "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
			RSSGatewayURL:   "https://spotifeed.timdorr.com",
			ITunesSearchURL: "https://itunes.apple.com/search",
		},
		Summary: Summary{
			BaseURL:        "http://localhost:11434/v1",
			Model:          "llama3.1:8b",
			TimeoutSeconds: 240,
			MaxSentences:   6,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			JobComplete:    true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format:        "console",
			Level:         "info",
			RetentionDays: 30,
		},
	}
}
