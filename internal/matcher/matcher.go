// Package matcher extracts domain entities from free-text questions with a single
// Aho-Corasick automaton built over every lexicon term.
package matcher

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/zero-day-ai/medqa/internal/lexicon"
	"github.com/zero-day-ai/medqa/internal/types"
)

// Matcher finds lexicon terms in text. It is immutable after New and safe for
// concurrent use.
type Matcher struct {
	lex       *lexicon.Lexicon
	terms     []string
	automaton *ahocorasick.Matcher
}

// New builds the automaton over every distinct domain term of lex.
func New(lex *lexicon.Lexicon) (*Matcher, error) {
	if lex == nil || lex.Len() == 0 {
		return nil, types.NewError(types.LEXICON_EMPTY, "cannot build matcher from an empty lexicon")
	}
	terms := lex.Terms()
	return &Matcher{
		lex:       lex,
		terms:     terms,
		automaton: ahocorasick.NewStringMatcher(terms),
	}, nil
}

// Lexicon returns the lexicon the matcher was built from.
func (m *Matcher) Lexicon() *lexicon.Lexicon {
	return m.lex
}

type span struct {
	start, end int
}

type hit struct {
	term  string
	spans []span
}

// Extract returns every lexicon term occurring in question, each annotated with
// all of its categories.
//
// An occurrence contained inside an occurrence of a longer matched term is
// suppressed; a term is reported only when at least one of its occurrences is not
// covered. Results are ordered by the start of the first reported occurrence, the
// longer term first on equal starts.
func (m *Matcher) Extract(question string) Entities {
	if question == "" {
		return nil
	}

	idx := m.automaton.MatchThreadSafe([]byte(question))
	if len(idx) == 0 {
		return nil
	}

	hits := make([]hit, 0, len(idx))
	seen := make(map[int]bool, len(idx))
	for _, i := range idx {
		if seen[i] {
			continue
		}
		seen[i] = true
		term := m.terms[i]
		hits = append(hits, hit{term: term, spans: occurrences(question, term)})
	}

	type kept struct {
		term  string
		first int
	}
	var out []kept
	for _, h := range hits {
		first := -1
		for _, s := range h.spans {
			if !covered(s, h.term, hits) {
				first = s.start
				break
			}
		}
		if first >= 0 {
			out = append(out, kept{term: h.term, first: first})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].first != out[j].first {
			return out[i].first < out[j].first
		}
		return len(out[i].term) > len(out[j].term)
	})

	entities := make(Entities, 0, len(out))
	for _, k := range out {
		entities = append(entities, Entity{Term: k.term, Categories: m.lex.Categories(k.term)})
	}
	return entities
}

// occurrences returns the byte spans of every (possibly overlapping) occurrence.
func occurrences(text, term string) []span {
	var spans []span
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			break
		}
		start := offset + i
		spans = append(spans, span{start: start, end: start + len(term)})
		offset = start + 1
	}
	return spans
}

// covered reports whether s (an occurrence of term) lies inside an occurrence of
// a strictly longer matched term.
func covered(s span, term string, hits []hit) bool {
	for _, other := range hits {
		if len(other.term) <= len(term) {
			continue
		}
		for _, o := range other.spans {
			if o.start <= s.start && s.end <= o.end {
				return true
			}
		}
	}
	return false
}
