// Package http exposes a switchboard engine over a JSON API built on chi.
//
// Routes:
//
//	POST   /sessions                 create a session and run it
//	GET    /sessions                 list sessions (when the store can list)
//	GET    /sessions/{id}            inspect a checkpoint
//	POST   /sessions/{id}/run        run a session with new input
//	DELETE /sessions/{id}            clear a session
//	GET    /sessions/{id}/events     server-sent checkpoint diffs
//	GET    /graph                    graph description
//	GET    /graph.mmd                Mermaid flowchart
//	GET    /health, /info
package http
