/*
Package tracing gives every operator HTTP request a trace and span ID.

IDs arrive in, or are generated for, the X-Trace-ID and X-Span-ID headers,
are stored in the request context and are echoed back in the response.
Finished spans are buffered and logged by a single collector goroutine, so
a slow logger never blocks a request.

# Usage

	tracer := tracing.New("sensorlink", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing
