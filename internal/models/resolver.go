package models

// Resolver maps shorthand model names to the canonical identifiers the
// upstream endpoint expects. The table is fixed at construction time and safe
// for concurrent use.
type Resolver struct {
	mappings map[string]string
}

func NewResolver(mappings map[string]string) *Resolver {
	table := make(map[string]string, len(mappings))
	for shorthand, canonical := range mappings {
		table[shorthand] = canonical
	}
	return &Resolver{mappings: table}
}

// Resolve returns the canonical name for a shorthand, or the input unchanged
// when no mapping exists. Lookups are exact and case-sensitive; ambiguity is
// a configuration problem, not something resolved here.
func (r *Resolver) Resolve(name string) string {
	if canonical, ok := r.mappings[name]; ok {
		return canonical
	}
	return name
}
