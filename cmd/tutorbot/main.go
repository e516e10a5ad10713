// Command tutorbot answers course forum questions with an LLM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/tutorbot/internal/adapters/driving/cli"
	"github.com/custodia-labs/tutorbot/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetRuntime(app.New())

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
