package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spec-kit/rental-portal/internal/cli"
	"github.com/spec-kit/rental-portal/internal/config"
	"github.com/spec-kit/rental-portal/internal/observability"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if os.Getenv("LOG_FORMAT") == "" {
		cfg.Logger.Format = "console"
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}

	logger, err := observability.NewLogger(cfg.Logger, "portalctl")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	env, err := cli.NewEnv(cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open session store:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = cli.NewRootCmd(env).ExecuteContext(ctx)
	stop()
	env.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", apperrors.UserMessage(err, err.Error()))
		os.Exit(1)
	}
}
