/*
Package servlin implements the per-connection half of an HTTP/1.1 server:
parsing the request line and headers out of a bounded buffer, ingesting the
request body either into memory or onto disk, writing the response, and
driving the keep-alive/expect-continue connection state machine.

Servlin does not include an async runtime, a TLS stack, or JSON/urlencoded
codecs. The embedder supplies a listen address (the Server builds its own
net.Listener from it), a context.Context for cancellation, and a
RequestHandler.

The Server type binds those collaborators together: it accepts connections,
admits them against a bounded token pool, and runs one goroutine per
connection for as long as the connection stays alive.
*/
package servlin
