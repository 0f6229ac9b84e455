// Command podscribed runs the podscribe daemon without the CLI wrapper.
//
// It loads configuration from the default search path and blocks until the
// process receives SIGINT or SIGTERM. Most installs should prefer
// "podscribe serve", which accepts flags; this binary exists for service
// managers that want a single static entrypoint.
package main

import (
	"context"
	"errors"
	"log"

	"podscribe/internal/config"
	"podscribe/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	opts := daemonrun.Options{LogLevel: cfg.Logging.Level}
	if err := daemonrun.Run(context.Background(), cfg, opts); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("podscribed: %v", err)
	}
}
