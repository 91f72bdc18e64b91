package intent

import "github.com/zero-day-ai/medqa/internal/lexicon"

// Trigger names a keyword set used by the rule table.
type Trigger string

const (
	TriggerSymptom  Trigger = "symptom"
	TriggerCause    Trigger = "cause"
	TriggerAcompany Trigger = "acompany"
	TriggerFood     Trigger = "food"
	TriggerDrug     Trigger = "drug"
	TriggerPrevent  Trigger = "prevent"
	TriggerLasttime Trigger = "lasttime"
	TriggerCureway  Trigger = "cureway"
	TriggerCureprob Trigger = "cureprob"
	TriggerEasyget  Trigger = "easyget"
	TriggerCheck    Trigger = "check"
	TriggerBelong   Trigger = "belong"
	TriggerCure     Trigger = "cure"
)

// DefaultKeywords returns the built-in trigger keyword sets. WithKeywords
// replaces individual sets.
func DefaultKeywords() map[Trigger][]string {
	return map[Trigger][]string{
		TriggerSymptom:  {"症状", "表征", "现象", "症候", "表现"},
		TriggerCause:    {"原因", "成因", "为什么", "怎么会", "怎样才"},
		TriggerAcompany: {"并发症", "并发", "一起发生", "一并发生"},
		TriggerFood:     {"饮食", "饮用", "吃", "食", "伙食", "膳食"},
		TriggerDrug:     {"药", "药品", "用药", "胶囊", "口服液"},
		TriggerPrevent:  {"预防", "防范", "抵制", "抵御", "防止"},
		TriggerLasttime: {"周期", "多久", "多长时间", "多少时间"},
		TriggerCureway:  {"怎么治疗", "如何医治", "怎么医治", "怎么治"},
		TriggerCureprob: {"多大概率能治好", "多大几率能治好", "治好希望大么"},
		TriggerEasyget:  {"易感人群", "容易感染", "易发人群", "什么人"},
		TriggerCheck:    {"检查", "检查项目", "查出"},
		TriggerBelong:   {"属于什么科", "属于", "什么科", "科室"},
		TriggerCure:     {"治疗什么", "治啥", "治疗啥", "医治啥"},
	}
}

// Rule fires Intent when an entity of Requires is present and the question
// contains a keyword from any of Triggers. When Negated is set and the question
// contains a negation word, Negated is emitted instead of Intent.
type Rule struct {
	Triggers []Trigger
	Requires lexicon.Category
	Intent   Intent
	Negated  Intent
}

// DefaultRules returns the rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Triggers: []Trigger{TriggerSymptom}, Requires: lexicon.Disease, Intent: DiseaseSymptom},
		{Triggers: []Trigger{TriggerSymptom}, Requires: lexicon.Symptom, Intent: SymptomDisease},
		{Triggers: []Trigger{TriggerCause}, Requires: lexicon.Disease, Intent: DiseaseCause},
		{Triggers: []Trigger{TriggerAcompany}, Requires: lexicon.Disease, Intent: DiseaseAcompany},
		{Triggers: []Trigger{TriggerFood}, Requires: lexicon.Disease, Intent: DiseaseDoFood, Negated: DiseaseNotFood},
		{Triggers: []Trigger{TriggerFood, TriggerCure}, Requires: lexicon.Food, Intent: FoodDoDisease, Negated: FoodNotDisease},
		{Triggers: []Trigger{TriggerDrug}, Requires: lexicon.Disease, Intent: DiseaseDrug},
		{Triggers: []Trigger{TriggerCure}, Requires: lexicon.Drug, Intent: DrugDisease},
		{Triggers: []Trigger{TriggerCheck}, Requires: lexicon.Disease, Intent: DiseaseCheck},
		{Triggers: []Trigger{TriggerCheck, TriggerCure}, Requires: lexicon.Check, Intent: CheckDisease},
		{Triggers: []Trigger{TriggerPrevent}, Requires: lexicon.Disease, Intent: DiseasePrevent},
		{Triggers: []Trigger{TriggerLasttime}, Requires: lexicon.Disease, Intent: DiseaseLasttime},
		{Triggers: []Trigger{TriggerCureway}, Requires: lexicon.Disease, Intent: DiseaseCureway},
		{Triggers: []Trigger{TriggerCureprob}, Requires: lexicon.Disease, Intent: DiseaseCureprob},
		{Triggers: []Trigger{TriggerEasyget}, Requires: lexicon.Disease, Intent: DiseaseEasyget},
		{Triggers: []Trigger{TriggerBelong}, Requires: lexicon.Disease, Intent: DiseaseDepartment},
	}
}
