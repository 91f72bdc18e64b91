package lexicon

import (
	"fmt"

	"github.com/zero-day-ai/medqa/internal/types"
)

// Category identifies a domain vocabulary class. The set is closed.
type Category string

const (
	Department Category = "department"
	Disease    Category = "disease"
	Check      Category = "check"
	Drug       Category = "drug"
	Food       Category = "food"
	Producer   Category = "producer"
	Symptom    Category = "symptom"

	// Negation holds the deny-word list. It is loaded with the lexicon but never
	// reported as an entity category.
	Negation Category = "deny"
)

var domainCategories = []Category{Department, Disease, Check, Drug, Food, Producer, Symptom}

type categoryInfo struct {
	label       string
	displayName string
	order       int
}

var categoryTable = map[Category]categoryInfo{
	Department: {"Department", "医疗科目", 0},
	Disease:    {"Disease", "疾病", 1},
	Check:      {"Check", "诊断检查项目", 2},
	Drug:       {"Drug", "药品", 3},
	Food:       {"Food", "食物", 4},
	Producer:   {"Producer", "在售药品", 5},
	Symptom:    {"Symptom", "疾病症状", 6},
	Negation:   {"", "否定词", 7},
}

// Categories returns the entity categories in load order. Negation is excluded.
func Categories() []Category {
	out := make([]Category, len(domainCategories))
	copy(out, domainCategories)
	return out
}

// AllCategories returns every category including Negation.
func AllCategories() []Category {
	return append(Categories(), Negation)
}

// ParseCategory validates an external category name. Node labels ("Disease")
// are accepted as well as the lower-case names.
func ParseCategory(name string) (Category, error) {
	c := Category(name)
	if _, ok := categoryTable[c]; ok {
		return c, nil
	}
	for cat, info := range categoryTable {
		if info.label != "" && info.label == name {
			return cat, nil
		}
	}
	return "", types.NewError(types.CATEGORY_UNKNOWN, fmt.Sprintf("unknown category %q", name))
}

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c belongs to the closed set.
func (c Category) IsValid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Label returns the graph node label for the category, "" for Negation.
func (c Category) Label() string {
	return categoryTable[c].label
}

// DisplayName returns the human readable (Chinese) name of the category.
func (c Category) DisplayName() string {
	return categoryTable[c].displayName
}

// FileName returns the word-list file name the category is loaded from.
func (c Category) FileName() string {
	return string(c) + ".txt"
}

func (c Category) order() int {
	return categoryTable[c].order
}
