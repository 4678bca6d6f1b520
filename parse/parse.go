// Package parse reads the chat log produced by the logfile sink and converts
// each record into a structured message.
//
// Parsing is best-effort by design: chat logs carry heterogeneous protocol
// traffic (server notices, join/part events, occasionally garbled lines), and
// only well-formed PRIVMSG records matter. ParseRecord makes each failure
// mode explicit through a typed error; ParseLog is the filter step that keeps
// successes and counts drops, so the drop behavior is observable instead of
// implicit.
package parse

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/subculture-collective/chatlogd/logfile"
	"github.com/subculture-collective/chatlogd/telemetry"
)

// Message is one parsed chat line.
type Message struct {
	Timestamp time.Time
	Channel   string
	Username  string
	Message   string
}

// Enumerable per-record failure modes. A failing record is dropped; no
// partial message is ever emitted.
var (
	ErrBadTimestamp = errors.New("timestamp does not match log layout")
	ErrNoSeparator  = errors.New("record has no separator")
	ErrNotPrivMsg   = errors.New("record body is not a PRIVMSG")
)

// ParseLog returns a lazy sequence over the messages in the log at path.
// Ranging over the sequence re-opens the file, so iterating twice over an
// unchanged file yields identical results. Malformed records are dropped and
// counted; a missing or unreadable file yields an empty sequence.
func ParseLog(path string) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("parse: read log", slog.String("path", path), slog.Any("err", err))
			return
		}
		for _, rec := range splitRecords(string(data)) {
			msg, err := ParseRecord(rec)
			if err != nil {
				telemetry.IncRecordsDropped()
				slog.Debug("parse: drop record", slog.Any("err", err))
				continue
			}
			telemetry.IncRecordsParsed()
			if !yield(msg) {
				return
			}
		}
	}
}

// splitRecords splits the log on the record delimiter. Runs of extra blank
// lines (logs written by older writers) are tolerated.
func splitRecords(data string) []string {
	parts := strings.Split(data, logfile.RecordDelimiter)
	recs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "\r\n")
		if p != "" {
			recs = append(recs, p)
		}
	}
	return recs
}

// ParseRecord parses one log record into a Message. The three failure modes
// map to ErrBadTimestamp, ErrNoSeparator, and ErrNotPrivMsg.
func ParseRecord(rec string) (Message, error) {
	tsTok, rest, found := strings.Cut(rec, " ")
	if !found {
		return Message{}, fmt.Errorf("%w: %q", ErrBadTimestamp, rec)
	}
	ts, err := time.Parse(logfile.TimestampLayout, tsTok)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %q", ErrBadTimestamp, tsTok)
	}

	// Split on the first separator occurrence only. The message body may
	// legitimately contain the separator glyph itself.
	_, body, found := strings.Cut(rest, logfile.Separator)
	if !found {
		return Message{}, fmt.Errorf("%w: %q", ErrNoSeparator, rest)
	}
	body = strings.TrimSpace(body)

	user, channel, text, err := matchPrivMsg(body)
	if err != nil {
		return Message{}, err
	}
	return Message{Timestamp: ts, Channel: channel, Username: user, Message: text}, nil
}

// matchPrivMsg is an explicit matcher for the fixed shape
//
//	:<user>!<any>@<any>.tmi.<domain> PRIVMSG #<channel> :<message>
//
// written as a tokenizer rather than a regex so the failure modes stay
// enumerable. The message runs to the end of the line; if the record carries
// several concatenated protocol lines, only the first PRIVMSG-shaped line is
// considered, as with the original line-anchored match.
func matchPrivMsg(body string) (user, channel, text string, err error) {
	if !strings.HasPrefix(body, ":") {
		return "", "", "", fmt.Errorf("%w: no source prefix", ErrNotPrivMsg)
	}
	source, rest, found := strings.Cut(body[1:], " ")
	if !found {
		return "", "", "", fmt.Errorf("%w: truncated record", ErrNotPrivMsg)
	}

	// source is <user>!<user-host>@<host>, host under a .tmi. domain.
	user, hostpart, found := strings.Cut(source, "!")
	if !found || user == "" {
		return "", "", "", fmt.Errorf("%w: no user in source", ErrNotPrivMsg)
	}
	_, host, found := strings.Cut(hostpart, "@")
	if !found || !strings.Contains(host, ".tmi.") {
		return "", "", "", fmt.Errorf("%w: source host not a chat server", ErrNotPrivMsg)
	}

	cmd, rest, found := strings.Cut(rest, " ")
	if !found || cmd != "PRIVMSG" {
		return "", "", "", fmt.Errorf("%w: command %q", ErrNotPrivMsg, cmd)
	}

	target, rest, found := strings.Cut(rest, " ")
	if !found || !strings.HasPrefix(target, "#") || len(target) < 2 {
		return "", "", "", fmt.Errorf("%w: target %q", ErrNotPrivMsg, target)
	}
	channel = target[1:]

	if !strings.HasPrefix(rest, ":") {
		return "", "", "", fmt.Errorf("%w: no message payload", ErrNotPrivMsg)
	}
	text = rest[1:]
	// A raw chunk can carry trailing protocol lines; the message ends at the
	// first line break.
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", "", fmt.Errorf("%w: empty message", ErrNotPrivMsg)
	}
	return user, channel, text, nil
}
