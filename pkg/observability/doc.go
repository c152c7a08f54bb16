/*
Package observability turns renderer lifecycle hooks into Prometheus metrics
and structured log lines.

Both helpers return a domain.LifecycleHooks value; combine them with
domain.ChainHooks and pass the result to the SDK or a modal session.
*/
package observability
