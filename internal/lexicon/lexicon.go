// Package lexicon loads the fixed medical vocabulary: one newline-delimited word
// list per Category. A Lexicon is immutable once loaded and safe to share between
// goroutines without locking.
package lexicon

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/zero-day-ai/medqa/internal/types"
)

// Lexicon holds the loaded word lists.
type Lexicon struct {
	words      map[Category][]string
	categories map[string][]Category
	terms      []string
	negations  []string
}

// LoadDir loads a lexicon from a directory containing <category>.txt files.
func LoadDir(dir string) (*Lexicon, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, types.WrapError(types.LEXICON_LOAD_FAILED,
			fmt.Sprintf("lexicon directory %s unavailable", dir), err)
	}
	return Load(os.DirFS(dir))
}

// Load reads one word list per category from fsys. Every category file must be
// present; a missing or unreadable file is a fatal error.
func Load(fsys fs.FS) (*Lexicon, error) {
	lists := make(map[Category][]string, len(categoryTable))
	for _, c := range AllCategories() {
		data, err := fs.ReadFile(fsys, c.FileName())
		if err != nil {
			return nil, types.WrapError(types.LEXICON_LOAD_FAILED,
				fmt.Sprintf("failed to read %s", c.FileName()), err)
		}
		words, err := parseWordList(data)
		if err != nil {
			return nil, types.WrapError(types.LEXICON_LOAD_FAILED,
				fmt.Sprintf("failed to parse %s", c.FileName()), err)
		}
		lists[c] = words
	}
	return New(lists)
}

// New builds a Lexicon from in-memory word lists. Categories missing from the
// map are treated as empty; unknown categories are rejected.
func New(lists map[Category][]string) (*Lexicon, error) {
	lex := &Lexicon{
		words:      make(map[Category][]string, len(lists)),
		categories: make(map[string][]Category),
	}

	for c := range lists {
		if !c.IsValid() {
			return nil, types.NewError(types.CATEGORY_UNKNOWN, fmt.Sprintf("unknown category %q", c))
		}
	}

	for _, c := range AllCategories() {
		seen := make(map[string]bool)
		for _, w := range lists[c] {
			w = strings.TrimSpace(w)
			if w == "" || seen[w] {
				continue
			}
			seen[w] = true
			lex.words[c] = append(lex.words[c], w)

			if c == Negation {
				lex.negations = append(lex.negations, w)
				continue
			}
			if _, known := lex.categories[w]; !known {
				lex.terms = append(lex.terms, w)
			}
			lex.categories[w] = append(lex.categories[w], c)
		}
	}

	for _, cats := range lex.categories {
		sort.Slice(cats, func(i, j int) bool { return cats[i].order() < cats[j].order() })
	}

	return lex, nil
}

func parseWordList(data []byte) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line != "" {
			words = append(words, line)
		}
	}
	return words, scanner.Err()
}

// Words returns the words loaded for c.
func (l *Lexicon) Words(c Category) []string {
	out := make([]string, len(l.words[c]))
	copy(out, l.words[c])
	return out
}

// Categories returns every domain category listing term, in category order.
// Nil if term is not a domain term.
func (l *Lexicon) Categories(term string) []Category {
	cats := l.categories[term]
	if cats == nil {
		return nil
	}
	out := make([]Category, len(cats))
	copy(out, cats)
	return out
}

// Terms returns the distinct domain terms (Negation excluded) in first-seen order.
func (l *Lexicon) Terms() []string {
	out := make([]string, len(l.terms))
	copy(out, l.terms)
	return out
}

// Negations returns the negation word list.
func (l *Lexicon) Negations() []string {
	out := make([]string, len(l.negations))
	copy(out, l.negations)
	return out
}

// ContainsNegation reports whether text contains any negation word.
func (l *Lexicon) ContainsNegation(text string) bool {
	for _, w := range l.negations {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct domain terms.
func (l *Lexicon) Len() int {
	return len(l.terms)
}

// Stats returns the number of words per category.
func (l *Lexicon) Stats() map[Category]int {
	stats := make(map[Category]int, len(categoryTable))
	for _, c := range AllCategories() {
		stats[c] = len(l.words[c])
	}
	return stats
}
