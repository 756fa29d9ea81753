package query

import (
	"strings"

	"github.com/poiesic/recall/core"
)

// IntentClassifier assigns an intent to query text.
type IntentClassifier interface {
	Classify(text string) core.Intent
}

// keywordBucket lists the keywords of one intent. Buckets are checked in
// priority order, so on equal hit counts the earlier bucket wins.
type keywordBucket struct {
	intent   core.Intent
	keywords []string
}

var defaultBuckets = []keywordBucket{
	{core.IntentInformational, []string{"quoi", "comment", "pourquoi", "qu'est-ce", "définition", "expliquer"}},
	{core.IntentNavigational, []string{"trouver", "chercher", "document", "fichier", "page"}},
	{core.IntentTransactional, []string{"créer", "générer", "faire", "produire", "exécuter"}},
	{core.IntentExploratory, []string{"explorer", "découvrir", "voir", "lister", "tout"}},
}

// KeywordClassifier counts keyword occurrences per intent in the lowercase
// query. The intent with the most hits wins; ties go to the higher priority
// intent (informational, navigational, transactional, exploratory). A query
// without any hit is informational.
type KeywordClassifier struct {
	buckets []keywordBucket
}

var _ IntentClassifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier returns a classifier using the built-in French keyword lists.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{buckets: defaultBuckets}
}

// Classify implements IntentClassifier.
func (k *KeywordClassifier) Classify(text string) core.Intent {
	lower := strings.ToLower(text)

	best := core.IntentInformational
	bestHits := 0
	for _, b := range k.buckets {
		hits := 0
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = b.intent, hits
		}
	}
	return best
}
