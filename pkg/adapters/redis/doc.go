// Package redis provides Redis-backed adapters: a snapshot store, a
// distributed locker and a cluster-wide function handle allocator.
package redis
