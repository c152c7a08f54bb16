/*
Package session keeps the registry of live modal sessions.

A Manager opens sessions through package modal, addresses them by UI
identifier and writes the snapshot of every acknowledged push to a
ports.SnapshotStore, so the last tree a host displays survives process
restarts. Operations on one identifier are serialized with reference-counted
locks that are released as soon as nobody waits on them.
*/
package session
