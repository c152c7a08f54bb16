// Package modal runs long-lived modal components against a host.
//
// A Session owns one component instance. Each call to SetState queues a
// render pass; the session serializes the result, compares it with the last
// tree the host acknowledged and only pushes when something changed.
// Pushes are strictly ordered: the next one is not sent before the host
// acknowledged the previous one.
package modal
