package irc

import "fmt"

// ConnError reports a failure to establish the connection or to write a
// control line during authentication. It is fatal to the ingestor instance;
// callers decide whether and how to reconnect.
type ConnError struct {
	Addr string
	Op   string
	Err  error
}

func (e *ConnError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("irc %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("irc %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// ReadError reports a transport failure mid-loop. It terminates the receive
// loop and is propagated to the caller as a terminal failure.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("irc read: %v", e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }
