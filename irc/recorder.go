package irc

import (
	"context"
	"log/slog"

	"github.com/subculture-collective/chatlogd/config"
	"github.com/subculture-collective/chatlogd/logfile"
)

// Record dials the configured chat endpoint, authenticates, and runs the
// receive loop until ctx is canceled or the transport fails. It is the
// single-channel entrypoint used by the run command; for multiple channels,
// run independent instances with their own sinks.
func Record(ctx context.Context, cfg *config.Config, sink logfile.Sink, filter Filter) error {
	if err := cfg.ValidateIngestReady(); err != nil {
		return err
	}
	conn, err := Dial(ctx, cfg.TwitchIRCAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("close connection", slog.Any("err", err))
		}
	}()

	client := NewClient(conn, sink, filter)
	if err := client.Authenticate(cfg.TwitchOAuthToken, cfg.TwitchBotUsername, cfg.TwitchChannel); err != nil {
		return err
	}
	slog.Info("chat ingest started",
		slog.String("addr", cfg.TwitchIRCAddr),
		slog.String("channel", cfg.TwitchChannel))
	return client.ReceiveLoop(ctx)
}
