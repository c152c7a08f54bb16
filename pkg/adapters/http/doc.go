/*
Package http bridges modal sessions to clients over HTTP.

Host implements ports.Host: every tree pushed by a session is streamed to
subscribers of GET /events as a "render" server-sent event carrying an ack id.
The client acknowledges with POST /modals/{ui_id}/ack/{ack_id}, which releases
the session's next push. Routes are served with chi.
*/
package http
