// Package selector picks the agenda for the next call from the keywords of
// earlier calls.
//
// Keep the heavier half of the candidates (rounded up), prefer the most
// recent of those, and return at most MaxSelected of them.
package selector

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"gamo-keyword-api/models"
)

// MaxSelected caps the size of a recommendation.
const MaxSelected = 3

var (
	// ErrEmptyCallIDs is a validation error: no call ids were supplied.
	ErrEmptyCallIDs = errors.New("callIds must not be empty")

	// ErrNoKeywordsFound means none of the supplied calls has stored keywords.
	ErrNoKeywordsFound = errors.New("no keywords found for the given call ids")
)

// Finder loads the candidate pool.
type Finder interface {
	FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error)
}

// Recommend validates the call ids, loads their keywords and runs Select.
// An empty id set is rejected before the finder is queried.
func Recommend(ctx context.Context, finder Finder, callIDs []int64) ([]models.Keyword, error) {
	if len(callIDs) == 0 {
		return nil, ErrEmptyCallIDs
	}

	candidates, err := finder.FindByCallIDs(ctx, dedupe(callIDs))
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}

	return Select(candidates)
}

// Select returns between 1 and MaxSelected records, most recent first.
//
//  1. stable sort by weight, descending, and keep the first ceil(n/2)
//  2. stable sort the survivors by CreatedAt, descending
//  3. keep the first min(MaxSelected, len(survivors))
//
// The input slice is left untouched. Equal weights keep their input order in
// step 1 and equal timestamps keep their step-1 order in step 2.
func Select(records []models.Keyword) ([]models.Keyword, error) {
	n := len(records)
	if n == 0 {
		return nil, ErrNoKeywordsFound
	}

	byWeight := slices.Clone(records)
	slices.SortStableFunc(byWeight, func(a, b models.Keyword) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	survivors := byWeight[:TopHalfCount(n)]

	slices.SortStableFunc(survivors, func(a, b models.Keyword) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return slices.Clip(survivors[:min(MaxSelected, len(survivors))]), nil
}

// TopHalfCount is ceil(n/2).
func TopHalfCount(n int) int {
	return (n + 1) / 2
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
