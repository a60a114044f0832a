package pagerange

import (
	"strconv"
	"strings"
)

// Rule is a validated zero-based inclusive page range: 0 <= Start <= End < pageCount.
type Rule struct {
	Start int
	End   int
}

// Len returns the number of pages covered by the rule.
func (r Rule) Len() int { return r.End - r.Start + 1 }

// OneBased returns the pages of the rule as 1-based page numbers in order.
func (r Rule) OneBased() []int {
	out := make([]int, 0, r.Len())
	for p := r.Start + 1; p <= r.End+1; p++ {
		out = append(out, p)
	}
	return out
}

// Parse turns a human-entered range string like "1-3,5,7-9" into validated
// zero-based rules. Tokens are comma-separated; "a-b" is an inclusive 1-based
// range, a bare "a" a single page. Malformed or out-of-bound tokens are
// silently dropped, so the result may hold fewer rules than tokens. Output
// order follows input order; overlapping ranges are not coalesced and
// duplicates are allowed. An empty result means nothing usable was entered.
func Parse(input string, maxPage int) []Rule {
	rules := []Rule{}
	for _, tok := range strings.Split(input, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.Contains(tok, "-") {
			parts := strings.SplitN(tok, "-", 2)
			start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err1 != nil || err2 != nil {
				continue
			}
			r := Rule{Start: start - 1, End: end - 1}
			if r.Start < 0 || r.End >= maxPage || r.Start > r.End {
				continue
			}
			rules = append(rules, r)
			continue
		}
		p, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if p-1 < 0 || p-1 >= maxPage {
			continue
		}
		rules = append(rules, Rule{Start: p - 1, End: p - 1})
	}
	return rules
}
