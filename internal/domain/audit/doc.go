// Package audit keeps the append-only operation log of a browser session.
//
// Each record is one JSON line in <artifacts>/<sessionId>/operations.log
// with a timestamp, the session id, the operation name, an outcome
// (accepted, rejected or failed) and a free-form detail map. Detail never
// carries secrets or typed text: callers record lengths and names instead.
package audit
