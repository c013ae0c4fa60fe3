// Package taxonomy holds the category set every assignment is validated
// against. The set is loaded once at process start; changing it requires a
// redeploy, and assignments made under an old set are not revalidated.
package taxonomy

// Defaults is the built-in category set, used when config defines none.
var Defaults = []string{
	"Important",
	"Personal",
	"Work",
	"Finance",
	"Marketing",
	"Social",
	"Updates",
	"Spam",
}

type Taxonomy struct {
	categories []string
	index      map[string]struct{}
}

// New builds a taxonomy snapshot, deduplicating while preserving order.
// An empty input falls back to Defaults.
func New(categories []string) *Taxonomy {
	if len(categories) == 0 {
		categories = Defaults
	}
	t := &Taxonomy{index: make(map[string]struct{}, len(categories))}
	for _, c := range categories {
		if _, dup := t.index[c]; dup {
			continue
		}
		t.categories = append(t.categories, c)
		t.index[c] = struct{}{}
	}
	return t
}

// Contains reports whether category is a member of the snapshot.
func (t *Taxonomy) Contains(category string) bool {
	_, ok := t.index[category]
	return ok
}

// Categories returns the ordered category list.
func (t *Taxonomy) Categories() []string {
	out := make([]string, len(t.categories))
	copy(out, t.categories)
	return out
}
