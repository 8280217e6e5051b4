package product

import "strings"

// Match reports whether p satisfies f, ignoring Limit. It mirrors the
// storage query so in-memory listings agree with the database.
func (f Filter) Match(p Product) bool {
	if f.Category != CategoryAll && p.Category != f.Category {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		return strings.Contains(strings.ToLower(p.Name), strings.ToLower(q))
	}
	return true
}

// Apply filters products in order and truncates to Limit.
func (f Filter) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !f.Match(p) {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
