/*
Package domain contains the core domain models of the Switchboard engine.

It defines the conversation entities the engine moves between stages, the checkpoint
persisted after every step, and the run-time error taxonomy. This package is kept pure
and free of external dependencies like I/O or persistence.

# Key Entities

  - Message: An immutable conversation record (role + content).
  - ConversationState: The append-only message log of a session.
  - Update: The partial state a node returns; applied with Merge.
  - Checkpoint: The persisted {session, state, position} that makes runs resumable.
*/
package domain
