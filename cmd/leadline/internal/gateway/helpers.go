package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/leadline-ai/leadline/cmd/leadline/internal"
	"github.com/leadline-ai/leadline/pkg/bus"
	"github.com/leadline-ai/leadline/pkg/channels"
	"github.com/leadline-ai/leadline/pkg/gateway"
	"github.com/leadline-ai/leadline/pkg/logger"
)

func gatewayCmd(debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}

	rt, err := internal.BuildRuntime("gateway")
	if err != nil {
		return err
	}
	cfg := rt.Cfg

	msgBus := bus.NewMessageBus()
	manager := channels.NewManager(msgBus, rt.Controller)

	if cfg.Channels.Slack.Enabled {
		sc, err := channels.NewSlackChannel(channels.SlackConfig{
			BotToken:  cfg.Channels.Slack.BotToken,
			AppToken:  cfg.Channels.Slack.AppToken,
			AllowList: cfg.Channels.Slack.AllowFrom,
		}, msgBus)
		if err != nil {
			fmt.Printf("⚠ Slack channel init failed: %v\n", err)
		} else {
			manager.Register(sc)
		}
	}

	if cfg.Channels.Discord.Enabled {
		dc, err := channels.NewDiscordChannel(channels.DiscordConfig{
			Token:     cfg.Channels.Discord.Token,
			AllowList: cfg.Channels.Discord.AllowFrom,
		}, msgBus)
		if err != nil {
			fmt.Printf("⚠ Discord channel init failed: %v\n", err)
		} else {
			manager.Register(dc)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager.StartAll(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	server := gateway.NewServer(gateway.Config{
		Addr:       addr,
		Controller: rt.Controller,
		Sessions:   manager,
		Quota:      rt.Quota,
		Meters:     rt.Meters,
		Leads:      rt.Leads,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	fmt.Printf("✓ Gateway started on http://%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	select {
	case err := <-errCh:
		manager.StopAll(ctx)
		return fmt.Errorf("gateway server error: %w", err)
	case <-sigChan:
	}

	fmt.Println("\nShutting down...")
	cancel()
	manager.StopAll(context.Background())
	fmt.Println("✓ Gateway stopped")

	return nil
}
