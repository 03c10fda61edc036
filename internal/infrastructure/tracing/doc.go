/*
Package tracing times HTTP requests and terminal connections.

A span records one operation with its trace and parent ids. Ended spans
go to a buffered queue; a collector goroutine writes them to the log, at
debug level when they succeed and at warn level when they carry an error.
When the queue is full, spans are dropped.

Traces propagate over HTTP with two headers:
  - X-Trace-ID: the request flow, continued when the client sends one
  - X-Span-ID: the operation that produced the response

Usage:

	tracer := tracing.New("terminal", log)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "terminal.connection")
	defer span.End()
*/
package tracing
