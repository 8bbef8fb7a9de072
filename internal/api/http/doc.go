// Package http exposes the gateway's commands as JSON over HTTP.
//
// Handlers bind the request body, call the gateway and write either the
// command's result with "ok": true or an error body
//
//	{"ok": false, "error": "<message>", "code": "<reason>", ...details}
//
// with the status chosen by StatusFor. Bodies are optional for every
// command; missing fields are reported by the gateway with their own
// messages.
package http
