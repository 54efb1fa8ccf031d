package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	config "github.com/xilidan/meetings/config/meetctl"
	"github.com/xilidan/meetings/gateways/cli"
	"github.com/xilidan/meetings/pkg/jwt"
	"github.com/xilidan/meetings/services/meetings/client"
)

func main() {
	if err := run(); err != nil {
		cli.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	token := cfg.Token
	if token == "" && cfg.JWTSecret != "" {
		if token, err = jwt.Generate(ctx, "meetctl", cfg.JWTSecret); err != nil {
			return fmt.Errorf("minting token: %w", err)
		}
	}

	meetings, err := client.New(cfg.Addr, token)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Addr, err)
	}
	defer meetings.Close()

	deps := &cli.Dependencies{
		Meetings:  meetings,
		JWTSecret: cfg.JWTSecret,
		Out:       os.Stdout,
		In:        os.Stdin,
	}

	return cli.NewRootCmd(deps).ExecuteContext(ctx)
}
