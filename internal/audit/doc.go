// Package audit implements async event dispatching for security-relevant operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, logrus, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics. It
//     stamps each event with an id, a UTC time, and the request id and client IP
//     attached via [WithRequestID] and [WithClientIP].
//   - [Event]: structured audit record with id, timestamp, type, user, request, IP, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine decides that.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import courseapp or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
