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

// Package search runs the full retrieval pipeline for a query.
//
// A Searcher embeds the query text, lets the query planner pick the number
// of neighbors and the metadata filter, queries the vector store, reranks
// the candidates with contextual signals and optionally drops false
// positives. Two optional stages extend it:
//   - expansion search embeds every synonym variant of the query and merges
//     the candidates by best similarity
//   - document collapsing keeps only the best chunk of each document
//
// Each stage is reported to a SearchMonitor and traced with OpenTelemetry.
package search
