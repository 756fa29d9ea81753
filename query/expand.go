package query

import (
	"slices"
	"strings"
	"sync"
)

// Expander rewrites a query into alternative phrasings. The first element of
// the result is always the original query.
type Expander interface {
	Expand(text string) []string
}

// Suggester proposes completions for partial query input.
type Suggester interface {
	Suggest(partial string) []string
}

// SynonymAdder accepts custom synonyms at runtime.
type SynonymAdder interface {
	AddSynonym(word string, synonyms ...string)
}

// MaxSuggestions caps the number of suggestions returned.
const MaxSuggestions = 10

var defaultSynonyms = map[string][]string{
	"document":  {"fichier", "doc"},
	"recherche": {"chercher", "trouver"},
	"créer":     {"générer", "produire", "faire"},
	"projet":    {"travail", "tâche"},
	"erreur":    {"bug", "problème"},
	"fonction":  {"méthode", "procédure"},
	"données":   {"data", "informations"},
	"système":   {"plateforme", "infrastructure"},
}

// SynonymExpander expands queries from a word -> synonyms table. Each
// substitutable word yields one extra query per synonym; words are never
// substituted in combination.
type SynonymExpander struct {
	mu       sync.RWMutex
	synonyms map[string][]string
}

var (
	_ Expander     = (*SynonymExpander)(nil)
	_ Suggester    = (*SynonymExpander)(nil)
	_ SynonymAdder = (*SynonymExpander)(nil)
)

// NewSynonymExpander returns an expander seeded with the built-in French table.
func NewSynonymExpander() *SynonymExpander {
	table := make(map[string][]string, len(defaultSynonyms))
	for k, v := range defaultSynonyms {
		table[k] = slices.Clone(v)
	}
	return &SynonymExpander{synonyms: table}
}

// Expand implements Expander.
func (s *SynonymExpander) Expand(text string) []string {
	out := []string{text}
	words := strings.Fields(text)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, word := range words {
		syns, ok := s.synonyms[normalizeWord(word)]
		if !ok {
			continue
		}
		for _, syn := range syns {
			variant := slices.Clone(words)
			variant[i] = syn
			out = append(out, strings.Join(variant, " "))
		}
	}
	return out
}

// AddSynonym appends synonyms for word. The word is stored lowercase.
func (s *SynonymExpander) AddSynonym(word string, synonyms ...string) {
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" || len(synonyms) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, syn := range synonyms {
		if !slices.Contains(s.synonyms[key], syn) {
			s.synonyms[key] = append(s.synonyms[key], syn)
		}
	}
}

// Suggest returns up to MaxSuggestions table words and synonyms starting with
// partial, case-insensitively. Keys are visited in sorted order.
func (s *SynonymExpander) Suggest(partial string) []string {
	prefix := strings.ToLower(strings.TrimSpace(partial))

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.synonyms))
	for k := range s.synonyms {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out []string
	seen := make(map[string]bool)
	add := func(word string) bool {
		if !seen[word] && strings.HasPrefix(strings.ToLower(word), prefix) {
			seen[word] = true
			out = append(out, word)
		}
		return len(out) >= MaxSuggestions
	}
	for _, k := range keys {
		if add(k) {
			return out
		}
		for _, syn := range s.synonyms[k] {
			if add(syn) {
				return out
			}
		}
	}
	return out
}

// normalizeWord lowercases a query word and trims surrounding punctuation.
func normalizeWord(word string) string {
	return strings.ToLower(strings.Trim(word, ".,!?;:\"-()[]{}"))
}
