// Package pageindex holds the pure index algebra behind page mutations:
// selection filtering, deletion remainders and move permutations. Nothing in
// here touches PDF bytes; callers feed the results to the mutation engine.
package pageindex

import (
	"fmt"
	"sort"

	"github.com/maotai11/pdf-editor-tool/internal/errs"
)

// PageRef identifies one page of one open document.
type PageRef struct {
	DocID string
	Index int
}

// SelectionSet is an explicit selection value spanning all open documents.
// It is passed into operations rather than living as ambient state.
type SelectionSet map[PageRef]struct{}

func NewSelectionSet() SelectionSet { return SelectionSet{} }

func (s SelectionSet) Add(docID string, index int)    { s[PageRef{docID, index}] = struct{}{} }
func (s SelectionSet) Remove(docID string, index int) { delete(s, PageRef{docID, index}) }

func (s SelectionSet) Has(docID string, index int) bool {
	_, ok := s[PageRef{docID, index}]
	return ok
}

// Toggle flips membership and reports the new state.
func (s SelectionSet) Toggle(docID string, index int) bool {
	ref := PageRef{docID, index}
	if _, ok := s[ref]; ok {
		delete(s, ref)
		return false
	}
	s[ref] = struct{}{}
	return true
}

// PagesFor filters the set down to one document and returns its page indices
// in ascending order, so range-sensitive consumers (extraction, rotation)
// always see pages in displayed order.
func (s SelectionSet) PagesFor(docID string) []int {
	out := []int{}
	for ref := range s {
		if ref.DocID == docID {
			out = append(out, ref.Index)
		}
	}
	sort.Ints(out)
	return out
}

// RemainingAfterDelete computes the ascending indices to keep when removing
// the given indices from a document of pageCount pages. Out-of-range removal
// indices are ignored. Removing every page is a business-rule violation: at
// least one page must remain.
func RemainingAfterDelete(pageCount int, remove []int) ([]int, error) {
	drop := make(map[int]struct{}, len(remove))
	for _, idx := range remove {
		if idx < 0 || idx >= pageCount {
			continue
		}
		drop[idx] = struct{}{}
	}
	keep := make([]int, 0, pageCount-len(drop))
	for i := 0; i < pageCount; i++ {
		if _, gone := drop[i]; !gone {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, &errs.BusinessRuleError{Rule: "last_page", Message: "cannot delete all pages of a document"}
	}
	return keep, nil
}

// MovePermutation builds the full permutation of [0..pageCount) with the
// element at from removed and reinserted at to. from == to yields the
// identity permutation.
func MovePermutation(pageCount, from, to int) ([]int, error) {
	if from < 0 || from >= pageCount || to < 0 || to >= pageCount {
		return nil, &errs.ValidationError{Message: fmt.Sprintf("move %d -> %d out of range [0,%d)", from, to, pageCount)}
	}
	order := make([]int, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		if i != from {
			order = append(order, i)
		}
	}
	order = append(order, 0)
	copy(order[to+1:], order[to:])
	order[to] = from
	return order, nil
}

// IsPermutation reports whether order is a bijection on [0, pageCount).
func IsPermutation(order []int, pageCount int) bool {
	if len(order) != pageCount {
		return false
	}
	seen := make([]bool, pageCount)
	for _, idx := range order {
		if idx < 0 || idx >= pageCount || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
