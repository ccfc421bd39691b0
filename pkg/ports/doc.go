/*
Package ports defines the driven ports (interfaces) for the Switchboard engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, reply services and lock managers.

# Key Interfaces

  - CheckpointStore: Responsible for persisting and loading session checkpoints.
  - Lister: Optional capability of stores that can enumerate their sessions.
  - DistributedLocker: Serialises runs of one session across replicas with a renewed lease.
  - ReplyGenerator: Produces the text of an assistant reply for a rendered prompt.
*/
package ports
