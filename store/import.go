// Package store persists parsed chat messages into Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/subculture-collective/chatlogd/parse"
	"github.com/subculture-collective/chatlogd/telemetry"
)

// ImportLog drains the parsed messages from the chat log at path into
// chat_messages. It is best-effort: individual insert failures are logged and
// counted, not fatal, mirroring the drop policy of the parser itself. Returns
// the number of rows inserted.
func ImportLog(ctx context.Context, db *sql.DB, path string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "store", "import-log")
	defer span.End()

	stmt, err := db.PrepareContext(ctx, `INSERT INTO chat_messages (id, channel, username, message, said_at) VALUES ($1,$2,$3,$4,$5)`)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("prepare insert chat: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Warn("failed to close prepared statement", slog.Any("err", err))
		}
	}()

	logger := slog.Default().With(slog.String("component", "chat_import"), slog.String("path", path))
	logger.Info("starting chat import")

	inserted := 0
	for msg := range parse.ParseLog(path) {
		if ctx.Err() != nil {
			telemetry.RecordError(span, ctx.Err())
			return inserted, ctx.Err()
		}
		if _, err := stmt.ExecContext(ctx, uuid.New(), msg.Channel, msg.Username, msg.Message, msg.Timestamp); err != nil {
			// best effort; continue on individual failures
			telemetry.IncRowInsertErrors()
			logger.Debug("insert chat row failed", slog.Any("err", err))
			continue
		}
		telemetry.IncRowsImported()
		inserted++
	}

	logger.Info("chat import finished", slog.Int("rows", inserted))
	telemetry.SetSpanSuccess(span)
	return inserted, nil
}

// Count returns the number of stored messages, optionally limited to channel.
func Count(ctx context.Context, db *sql.DB, channel string) (int, error) {
	var n int
	if channel == "" {
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages`).Scan(&n)
		return n, err
	}
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages WHERE channel=$1`, channel).Scan(&n)
	return n, err
}
