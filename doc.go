/*
Package switchboard is a small finite-state orchestration engine for multi-turn conversational workflows.

A conversation is a directed graph of named nodes connected by fixed and conditional edges
(see package graph). The engine walks the graph for a session, merging the messages each node
produces into an append-only log, and writes a checkpoint after every step so an interrupted
session resumes exactly where it stopped.

# Usage

	g, err := support.New(reply.NewScripted(nil))
	if err != nil {
		log.Fatal(err)
	}

	eng, err := switchboard.New(g, switchboard.WithStore(sqlite.New(db)))
	if err != nil {
		log.Fatal(err)
	}

	state, err := eng.Say(ctx, "45", "Iniciar atendimento")
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range state.Messages {
		fmt.Printf("%s: %s\n", m.Role, m.Content)
	}

# Sessions

Runs of the same session are serialised by a per-session lock (and optionally a distributed
lock, see WithLocker). When a session has reached the terminal marker, a new input starts a
new turn from the entry; input sent to a session stopped mid-flight is ignored and the run
resumes from the last checkpoint.
*/
package switchboard
