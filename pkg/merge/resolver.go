// Package merge implements the keyed three-way line merge of mod script
// files against a baseline file.
package merge

// Candidate is one distinct proposed line for a key, tagged with every mod
// that proposed it. Candidates keep first-encountered order.
type Candidate struct {
	Line    string
	Sources []string
}

// Conflict describes one genuinely ambiguous key: at least two distinct
// proposed values. The engine suspends until a decision comes back.
type Conflict struct {
	Path       string
	Key        string
	Candidates []Candidate
}

// Decision carries the chosen line and, optionally, a source whose later
// proposals should win every remaining conflict in the same file. A sticky
// source drops non-preferred proposals outright.
type Decision struct {
	Line         string
	StickySource string
}

// Resolver supplies decisions for ambiguous merges. The call is synchronous
// relative to the engine's pass; interactive front-ends block on the user
// here.
type Resolver interface {
	Resolve(c Conflict) (Decision, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(c Conflict) (Decision, error)

func (f ResolverFunc) Resolve(c Conflict) (Decision, error) {
	return f(c)
}

// PickFirst always chooses the first-encountered candidate. Suitable for
// non-interactive embeddings.
var PickFirst = ResolverFunc(func(c Conflict) (Decision, error) {
	return Decision{Line: c.Candidates[0].Line}, nil
})

// PreferSource resolves toward the named mod wherever it contributed a
// candidate, falling back to the first candidate, and marks the source
// sticky so the rest of the file follows it without further calls.
func PreferSource(source string) Resolver {
	return ResolverFunc(func(c Conflict) (Decision, error) {
		for _, cand := range c.Candidates {
			for _, s := range cand.Sources {
				if s == source {
					return Decision{Line: cand.Line, StickySource: source}, nil
				}
			}
		}
		return Decision{Line: c.Candidates[0].Line, StickySource: source}, nil
	})
}
