/*
Package session implements session management and persistence orchestration.

It serialises access to a session's checkpoint within a process with ref-counted
per-session mutexes and, when configured, across replicas with a distributed locker.
*/
package session
