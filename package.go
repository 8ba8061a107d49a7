// Package cmfy is a command line client for a ComfyUI server.
//
// The client package talks to the server's http and websocket endpoints,
// graphapi reads and rewrites prompt graphs, and cmd/cmfy is the command
// line tool built on both.
package cmfy
