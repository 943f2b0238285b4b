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


// Package search provides hybrid semantic and lexical search over passages.
//
// The Searcher type implements a multi-stage ranking algorithm that combines:
//   - Semantic search using vector embeddings
//   - Lexical substring matching with synonym expansion
//   - Direct citation lookup ("meditations 6.26")
//
// Semantic and lexical signals are normalized and blended into one score,
// a dampened per-source priority acts as a tie-breaker, and a per-source
// soft cap diversifies the final top-K. A reciprocal-rank fusion layer
// merges the rankings of several related query phrasings for topic-curation
// callers.
//
// Semantic retrieval failure degrades to lexical-only ranking; partial
// degradation is always preferred to total failure.
package search
