// Package logfile provides the append-only chat log sink.
//
// Each receive event becomes exactly one record of the form
//
//	<timestamp> — <raw text>
//
// where the timestamp uses the fixed layout 2006-01-02_15:04:05 and the
// separator is an em dash with a space on either side. A record is terminated
// by a blank-line gap (three consecutive newlines) so that raw chunks which
// themselves contain newlines survive as a single record. The parse package
// splits on the same delimiter.
package logfile

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// TimestampLayout is the fixed timestamp format used for log records.
const TimestampLayout = "2006-01-02_15:04:05"

// Separator sits between the timestamp and the raw chunk text.
const Separator = "—"

// RecordDelimiter terminates every record. The trailing two blank lines are
// the record boundary the parser splits on.
const RecordDelimiter = "\n\n\n"

// Sink receives one raw chunk per receive event together with the time it
// arrived. Implementations must be safe for a single producer.
type Sink interface {
	Append(ts time.Time, text string) error
}

// FileSink appends records to a single file opened in append-only mode.
type FileSink struct {
	mu sync.Mutex
	f  *os.File
}

// OpenFileSink opens (or creates) the chat log at path for appending.
func OpenFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open chat log: %w", err)
	}
	return &FileSink{f: f}, nil
}

// Append writes one record. The raw text is written verbatim; no line
// splitting happens here because a single receive can carry zero, one, or
// several concatenated protocol lines.
func (s *FileSink) Append(ts time.Time, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("append: sink closed")
	}
	rec := ts.Format(TimestampLayout) + " " + Separator + " " + text + RecordDelimiter
	if _, err := s.f.WriteString(rec); err != nil {
		return fmt.Errorf("append chat log: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Append after Close fails.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
