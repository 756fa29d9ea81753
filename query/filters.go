package query

import (
	"slices"
	"strings"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/vector"
)

// BuildPredicate translates filters into a metadata predicate. A nil filter
// yields a nil predicate.
//
// Document types must match exactly. Tags match when any requested tag equals
// any entry of the comma separated "tags" field. A date range only admits
// candidates whose "created_at" parses as RFC3339 and falls inside the range.
func BuildPredicate(filters *core.SearchFilters) vector.Predicate {
	if filters == nil {
		return nil
	}

	docTypes := slices.Clone(filters.DocTypes)
	wanted := make([]string, 0, len(filters.Tags))
	for _, tag := range filters.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			wanted = append(wanted, tag)
		}
	}
	var dateRange *core.DateRange
	if filters.DateRange != nil {
		r := *filters.DateRange
		dateRange = &r
	}

	return func(meta map[string]string) bool {
		if len(docTypes) > 0 && !slices.Contains(docTypes, meta[core.MetaDocType]) {
			return false
		}
		if len(wanted) > 0 && !anyTag(meta[core.MetaTags], wanted) {
			return false
		}
		if dateRange != nil {
			created, err := time.Parse(time.RFC3339, meta[core.MetaCreatedAt])
			if err != nil || !dateRange.Contains(created) {
				return false
			}
		}
		return true
	}
}

func anyTag(field string, wanted []string) bool {
	if field == "" {
		return false
	}
	for _, tag := range strings.Split(field, ",") {
		if slices.Contains(wanted, strings.TrimSpace(tag)) {
			return true
		}
	}
	return false
}
