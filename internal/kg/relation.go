package kg

import (
	"fmt"

	"github.com/zero-day-ai/medqa/internal/types"
)

// Relation is a relationship type of the medical graph. The set is closed.
type Relation string

const (
	BelongsTo     Relation = "belongs_to"
	CommonDrug    Relation = "common_drug"
	DoEat         Relation = "do_eat"
	DrugsOf       Relation = "drugs_of"
	NeedCheck     Relation = "need_check"
	NoEat         Relation = "no_eat"
	RecommandDrug Relation = "recommand_drug"
	RecommandEat  Relation = "recommand_eat"
	HasSymptom    Relation = "has_symptom"
	AcompanyWith  Relation = "acompany_with"
)

var relations = []Relation{
	BelongsTo, CommonDrug, DoEat, DrugsOf, NeedCheck,
	NoEat, RecommandDrug, RecommandEat, HasSymptom, AcompanyWith,
}

var relationNames = map[Relation]string{
	BelongsTo:     "属于",
	CommonDrug:    "疾病常用药品",
	DoEat:         "疾病宜吃食物",
	DrugsOf:       "药品在售药品",
	NeedCheck:     "疾病所需检查",
	NoEat:         "疾病忌吃食物",
	RecommandDrug: "疾病推荐药品",
	RecommandEat:  "疾病推荐食谱",
	HasSymptom:    "疾病症状",
	AcompanyWith:  "疾病并发疾病",
}

// Relations returns every relation type.
func Relations() []Relation {
	out := make([]Relation, len(relations))
	copy(out, relations)
	return out
}

// ParseRelation validates an external relation name.
func ParseRelation(name string) (Relation, error) {
	r := Relation(name)
	if !r.IsValid() {
		return "", types.NewError(types.RELATION_UNKNOWN, fmt.Sprintf("unknown relation %q", name))
	}
	return r, nil
}

// String returns the relationship type as stored in the graph.
func (r Relation) String() string {
	return string(r)
}

// IsValid reports whether r belongs to the closed set.
func (r Relation) IsValid() bool {
	_, ok := relationNames[r]
	return ok
}

// DisplayName returns the Chinese name of the relation, or the raw type for
// relations outside the catalog.
func (r Relation) DisplayName() string {
	if name, ok := relationNames[r]; ok {
		return name
	}
	return string(r)
}
