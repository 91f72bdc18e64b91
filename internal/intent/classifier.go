package intent

import (
	"fmt"
	"strings"

	"github.com/zero-day-ai/medqa/internal/lexicon"
	"github.com/zero-day-ai/medqa/internal/matcher"
	"github.com/zero-day-ai/medqa/internal/types"
)

// Result is the classification of one question: the extracted entities and the
// ordered, duplicate-free intents.
type Result struct {
	Entities matcher.Entities `json:"entities"`
	Intents  []Intent         `json:"intents"`
}

// Empty reports whether no classification was possible.
func (r Result) Empty() bool {
	return len(r.Entities) == 0 || len(r.Intents) == 0
}

// Classifier applies the rule table to extracted entities. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	matcher  *matcher.Matcher
	keywords map[Trigger][]string
	rules    []Rule
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithKeywords replaces the keyword set of the given triggers.
func WithKeywords(keywords map[Trigger][]string) Option {
	return func(c *Classifier) {
		for t, words := range keywords {
			c.keywords[t] = append([]string(nil), words...)
		}
	}
}

// WithRules replaces the rule table.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// NewClassifier creates a classifier over m. The matcher's lexicon supplies the
// negation words.
func NewClassifier(m *matcher.Matcher, opts ...Option) (*Classifier, error) {
	if m == nil {
		return nil, types.NewError(types.INIT_FAILED, "classifier requires a matcher")
	}
	c := &Classifier{
		matcher:  m,
		keywords: DefaultKeywords(),
		rules:    DefaultRules(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Classifier) validate() error {
	for i, r := range c.rules {
		if !r.Intent.IsValid() {
			return types.NewError(types.INTENT_UNKNOWN, fmt.Sprintf("rule %d: unknown intent %q", i, r.Intent))
		}
		if r.Negated != "" && !r.Negated.IsValid() {
			return types.NewError(types.INTENT_UNKNOWN, fmt.Sprintf("rule %d: unknown negated intent %q", i, r.Negated))
		}
		if !r.Requires.IsValid() || r.Requires == lexicon.Negation {
			return types.NewError(types.CATEGORY_UNKNOWN, fmt.Sprintf("rule %d: invalid category %q", i, r.Requires))
		}
		for _, t := range r.Triggers {
			if _, ok := c.keywords[t]; !ok {
				return types.NewError(types.INPUT_INVALID, fmt.Sprintf("rule %d: no keywords for trigger %q", i, t))
			}
		}
	}
	return nil
}

// ClassifyQuestion extracts entities from question and classifies it. A
// question with no entities yields the zero Result.
func (c *Classifier) ClassifyQuestion(question string) Result {
	entities := c.matcher.Extract(question)
	if len(entities) == 0 {
		return Result{}
	}
	return Result{
		Entities: entities,
		Intents:  c.Classify(question, entities),
	}
}

// Classify evaluates the rule table in order. When no rule fires the default
// applies: disease_desc if a disease was matched, otherwise symptom_disease if a
// symptom was matched, otherwise nothing.
func (c *Classifier) Classify(question string, entities matcher.Entities) []Intent {
	if len(entities) == 0 {
		return nil
	}
	present := entities.CategorySet()

	var intents []Intent
	seen := make(map[Intent]bool)
	add := func(i Intent) {
		if !seen[i] {
			seen[i] = true
			intents = append(intents, i)
		}
	}

	negated := c.matcher.Lexicon().ContainsNegation(question)
	for _, r := range c.rules {
		if !present[r.Requires] || !c.triggered(question, r.Triggers) {
			continue
		}
		if r.Negated != "" && negated {
			add(r.Negated)
			continue
		}
		add(r.Intent)
	}

	if len(intents) > 0 {
		return intents
	}
	return defaultIntents(present)
}

func (c *Classifier) triggered(question string, triggers []Trigger) bool {
	for _, t := range triggers {
		for _, kw := range c.keywords[t] {
			if strings.Contains(question, kw) {
				return true
			}
		}
	}
	return false
}

func defaultIntents(present map[lexicon.Category]bool) []Intent {
	switch {
	case present[lexicon.Disease]:
		return []Intent{DiseaseDesc}
	case present[lexicon.Symptom]:
		return []Intent{SymptomDisease}
	default:
		return nil
	}
}
