// Package intent classifies medical questions into a fixed catalog of intents
// using an ordered table of trigger-keyword rules.
package intent

import (
	"fmt"

	"github.com/zero-day-ai/medqa/internal/lexicon"
	"github.com/zero-day-ai/medqa/internal/types"
)

// Intent is a question-type label from the fixed catalog.
type Intent string

const (
	DiseaseSymptom    Intent = "disease_symptom"
	SymptomDisease    Intent = "symptom_disease"
	DiseaseCause      Intent = "disease_cause"
	DiseaseAcompany   Intent = "disease_acompany"
	DiseaseNotFood    Intent = "disease_not_food"
	DiseaseDoFood     Intent = "disease_do_food"
	FoodNotDisease    Intent = "food_not_disease"
	FoodDoDisease     Intent = "food_do_disease"
	DiseaseDrug       Intent = "disease_drug"
	DrugDisease       Intent = "drug_disease"
	DiseaseCheck      Intent = "disease_check"
	CheckDisease      Intent = "check_disease"
	DiseasePrevent    Intent = "disease_prevent"
	DiseaseLasttime   Intent = "disease_lasttime"
	DiseaseCureway    Intent = "disease_cureway"
	DiseaseCureprob   Intent = "disease_cureprob"
	DiseaseEasyget    Intent = "disease_easyget"
	DiseaseDepartment Intent = "disease_department"
	DiseaseDesc       Intent = "disease_desc"
)

// catalog maps every intent to its driving category. It is the single source of
// truth for which intents exist.
var catalog = []struct {
	intent   Intent
	category lexicon.Category
}{
	{DiseaseSymptom, lexicon.Disease},
	{SymptomDisease, lexicon.Symptom},
	{DiseaseCause, lexicon.Disease},
	{DiseaseAcompany, lexicon.Disease},
	{DiseaseNotFood, lexicon.Disease},
	{DiseaseDoFood, lexicon.Disease},
	{FoodNotDisease, lexicon.Food},
	{FoodDoDisease, lexicon.Food},
	{DiseaseDrug, lexicon.Disease},
	{DrugDisease, lexicon.Drug},
	{DiseaseCheck, lexicon.Disease},
	{CheckDisease, lexicon.Check},
	{DiseasePrevent, lexicon.Disease},
	{DiseaseLasttime, lexicon.Disease},
	{DiseaseCureway, lexicon.Disease},
	{DiseaseCureprob, lexicon.Disease},
	{DiseaseEasyget, lexicon.Disease},
	{DiseaseDepartment, lexicon.Disease},
	{DiseaseDesc, lexicon.Disease},
}

var driving = func() map[Intent]lexicon.Category {
	m := make(map[Intent]lexicon.Category, len(catalog))
	for _, e := range catalog {
		m[e.intent] = e.category
	}
	return m
}()

// All returns every intent in catalog order.
func All() []Intent {
	out := make([]Intent, len(catalog))
	for i, e := range catalog {
		out[i] = e.intent
	}
	return out
}

// Parse validates an intent name supplied from outside the rule table, e.g. by
// an ML classifier.
func Parse(name string) (Intent, error) {
	i := Intent(name)
	if _, ok := driving[i]; !ok {
		return "", types.NewError(types.INTENT_UNKNOWN, fmt.Sprintf("unknown intent %q", name))
	}
	return i, nil
}

// String returns the intent name.
func (i Intent) String() string {
	return string(i)
}

// IsValid reports whether i is in the catalog.
func (i Intent) IsValid() bool {
	_, ok := driving[i]
	return ok
}

// DrivingCategory returns the category whose entities are substituted into the
// intent's query templates.
func (i Intent) DrivingCategory() lexicon.Category {
	return driving[i]
}
