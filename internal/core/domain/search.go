package domain

import (
	"fmt"
	"sort"
	"strconv"
)

// RetrievalResult is a chunk returned by a similarity query.
type RetrievalResult struct {
	// ID is the chunk identifier.
	ID string

	// Text is the chunk content.
	Text string

	// Metadata is the chunk metadata as stored.
	Metadata map[string]any

	// Distance is the cosine distance to the query (lower is closer).
	Distance float64
}

// SortResults orders results by ascending distance.
// Equal distances are ordered by ascending ID so context blocks are reproducible.
func SortResults(results []RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance == results[j].Distance {
			return results[i].ID < results[j].ID
		}
		return results[i].Distance < results[j].Distance
	})
}

// MetaString reads a metadata value as a string, whatever type it was stored as.
func (r RetrievalResult) MetaString(key string) string {
	v, ok := r.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
