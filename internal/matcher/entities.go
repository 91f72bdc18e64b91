package matcher

import "github.com/zero-day-ai/medqa/internal/lexicon"

// Entity is a lexicon term found in a question.
type Entity struct {
	Term       string             `json:"term"`
	Categories []lexicon.Category `json:"categories"`
}

// Entities is the ordered extraction result for one question.
type Entities []Entity

// Len returns the number of entities.
func (e Entities) Len() int {
	return len(e)
}

// Terms returns the matched surface forms in order.
func (e Entities) Terms() []string {
	terms := make([]string, len(e))
	for i, ent := range e {
		terms[i] = ent.Term
	}
	return terms
}

// Lookup returns the categories of term and whether it was matched.
func (e Entities) Lookup(term string) ([]lexicon.Category, bool) {
	for _, ent := range e {
		if ent.Term == term {
			return ent.Categories, true
		}
	}
	return nil, false
}

// HasCategory reports whether any entity belongs to c.
func (e Entities) HasCategory(c lexicon.Category) bool {
	for _, ent := range e {
		for _, cat := range ent.Categories {
			if cat == c {
				return true
			}
		}
	}
	return false
}

// CategorySet returns the set of categories present.
func (e Entities) CategorySet() map[lexicon.Category]bool {
	set := make(map[lexicon.Category]bool)
	for _, ent := range e {
		for _, c := range ent.Categories {
			set[c] = true
		}
	}
	return set
}

// ByCategory inverts the result: category -> terms in match order. A term
// listed under several categories appears in each list.
func (e Entities) ByCategory() map[lexicon.Category][]string {
	out := make(map[lexicon.Category][]string)
	for _, ent := range e {
		for _, c := range ent.Categories {
			out[c] = append(out[c], ent.Term)
		}
	}
	return out
}

// AsMap returns the unordered term -> categories mapping.
func (e Entities) AsMap() map[string][]lexicon.Category {
	m := make(map[string][]lexicon.Category, len(e))
	for _, ent := range e {
		m[ent.Term] = ent.Categories
	}
	return m
}
