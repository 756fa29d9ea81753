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

package core

import (
	"fmt"
	"strings"
)

// ValidateQuery checks that a query can be searched.
func ValidateQuery(query *SearchQuery) error {
	if query == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}

	if strings.TrimSpace(query.Text) == "" {
		return fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}

	if query.Intent < IntentUnspecified || query.Intent > IntentExploratory {
		return fmt.Errorf("%w: %w: %d", ErrInvalidQuery, ErrUnknownIntent, query.Intent)
	}

	if f := query.Filters; f != nil && f.DateRange != nil && f.DateRange.End.Before(f.DateRange.Start) {
		return fmt.Errorf("%w: date range ends before it starts", ErrInvalidQuery)
	}

	return nil
}

// ValidateDocumentID checks that a document ID is usable as a map and storage key.
func ValidateDocumentID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentID)
	}
	return nil
}
