package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdout)
	err := a.rootCmd().ExecuteContext(ctx)
	a.pushMetrics()
	if err == nil {
		return
	}

	var ee *exitError
	if errors.As(err, &ee) {
		log.Error("transfer failed", "error", ee.err)
		stop()
		os.Exit(ee.code)
	}
	log.Error("near-transfer failed", "error", err)
	stop()
	os.Exit(1)
}
