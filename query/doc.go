// Package query turns a user query into a tuned nearest-neighbor search.
//
// A Planner classifies the query intent, expands the query with synonyms,
// picks how many neighbors to fetch and translates SearchFilters into a
// metadata predicate evaluated by the vector store. After the search it drops
// weak matches and caps the result count.
//
// Intent classification and expansion sit behind the IntentClassifier and
// Expander interfaces; the keyword and synonym-table implementations in this
// package are the defaults.
package query
