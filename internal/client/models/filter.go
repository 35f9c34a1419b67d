package models

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// TreeFilter is the set of query filters of GET /trees (status, country,
// userId, ...). Its Key is the cache-validity token of the tree cache.
type TreeFilter map[string]string

// Key serialises the filter canonically: keys sorted, empty values dropped.
// Logically equal filters always produce the same key, and the empty filter
// produces "".
func (f TreeFilter) Key() string {
	return f.Values().Encode()
}

// Values returns the non-empty filters as query values. Names are trimmed;
// when two names trim to the same one, the name that needed no trimming
// wins, otherwise the first in sorted order.
func (f TreeFilter) Values() url.Values {
	v := url.Values{}
	for _, raw := range slices.Sorted(maps.Keys(f)) {
		k, val := strings.TrimSpace(raw), strings.TrimSpace(f[raw])
		if k == "" || val == "" {
			continue
		}
		if v.Has(k) && raw != k {
			continue
		}
		v.Set(k, val)
	}
	return v
}

// IsEmpty is true when no filter narrows the list.
func (f TreeFilter) IsEmpty() bool {
	return len(f.Values()) == 0
}

// ParseTreeFilter builds a filter from "name=value" tokens.
func ParseTreeFilter(tokens []string) (TreeFilter, error) {
	f := TreeFilter{}
	for _, tok := range tokens {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("filter %q must be name=value", tok)
		}
		f[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return f, nil
}
