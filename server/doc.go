// Package server exposes the interpretation queue over HTTP.
//
//	POST /submit   {"narrative": "..."}  queue a narrative
//	GET  /results                        drain completed interpretations
//	GET  /health                         liveness and queue counts
//
// Results are read-once: a narrative's interpretation is returned by exactly
// one /results call.
package server
