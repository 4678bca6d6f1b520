// Package irc contains the raw Twitch chat ingestor.
//
// It speaks just enough of the IRC line protocol to join one channel and
// stream everything the server pushes into an append-only chat log:
//   - Dial opens the TCP connection to the chat endpoint.
//   - Client.Authenticate sends the PASS/NICK/JOIN control lines. Twitch does
//     not acknowledge them; a bad token simply results in no traffic.
//   - Client.ReceiveLoop reads bounded chunks, answers PING probes with PONG,
//     and hands every other non-empty chunk to the configured sink verbatim.
//     No line splitting happens at ingest time; a single read may carry zero,
//     one, or several concatenated protocol messages, and the offline parse
//     package splits them later.
//
// The loop runs until the connection dies (a *ReadError) or the context is
// canceled, in which case it exits cleanly. Reconnect policy is deliberately
// left to the caller.
package irc
