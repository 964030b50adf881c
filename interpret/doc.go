// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package interpret implements the asynchronous dream interpretation pipeline.
//
// Narratives enter a deduplicating Queue. A single Worker pops them in FIFO
// order, takes the next SessionPair from the SessionPool and runs the
// pipeline stages in sequence:
//
//	Rewriter   -> splits the narrative into "In the dream ..." sub-queries
//	Fanout     -> queries every retrieval backend with every sub-query
//	Arbiter    -> asks the completion service to pick a backend per sub-query
//	Aggregator -> groups the chosen interpretations and requests a summary
//
// The rendered text is stored as the narrative's result until it is drained.
//
// The completion service is treated as an untrusted oracle. Every stage has a
// deterministic fallback, so a failing or rambling service degrades the
// output instead of failing the job. Only the stop signal ends the worker.
//
// Pipeline stages never hold a shared lock while they wait on an external
// service; Enqueue, Drain and Stats stay responsive during slow calls.
package interpret
