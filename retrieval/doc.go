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


// Package retrieval provides the retrieval backends queried by the
// interpretation pipeline.
//
// A Backend is an independent index over the same passage dataset, usually
// built with a different embedding model. Query returns matches ordered by
// ascending distance; the interpretation attached to a passage travels in
// the match metadata under MetadataInterpretation.
//
// VectorBackend embeds the query text and searches a storage.PassageRepository.
// Unavailable stands in for a configured backend that could not be opened and
// always returns nothing, so the rest of the pipeline runs unchanged.
package retrieval
