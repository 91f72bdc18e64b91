package graph

import (
	"fmt"
	"strings"

	"github.com/zero-day-ai/medqa/internal/query"
)

// Relation is one (source, relation, target) triple.
type Relation struct {
	Source   string `json:"source"`
	Relation string `json:"relation"`
	Target   string `json:"target"`
}

// Record is the normalized view of every row about one main entity.
type Record struct {
	MainEntity string         `json:"main_entity"`
	Properties map[string]any `json:"properties"`
	Relations  []Relation     `json:"relations"`
}

// IsEmpty reports whether the record carries no facts about its entity.
func (r Record) IsEmpty() bool {
	return len(r.Properties) == 0 && len(r.Relations) == 0
}

// ShapedRows pairs raw result rows with the shape of the query that
// produced them.
type ShapedRows struct {
	Shape query.Shape
	Rows  []map[string]any
}

// Normalize groups rows by main entity in first-seen order. Property columns
// with empty values are skipped, the first non-empty value of a property
// wins, relation triples are deduplicated, and triples without a target are
// skipped. Rows whose main column is empty are dropped and counted.
func Normalize(batches []ShapedRows) (records []Record, dropped int) {
	index := make(map[string]int)
	seen := make(map[string]map[Relation]bool)

	for _, batch := range batches {
		mainCol, ok := batch.Shape.Column(query.RoleMain)
		if !ok {
			dropped += len(batch.Rows)
			continue
		}
		props := batch.Shape.Properties()
		isRelation := batch.Shape.IsRelation()
		sourceCol, _ := batch.Shape.Column(query.RoleSource)
		relationCol, _ := batch.Shape.Column(query.RoleRelation)
		targetCol, _ := batch.Shape.Column(query.RoleTarget)

		for _, row := range batch.Rows {
			main := stringValue(row[mainCol])
			if main == "" {
				dropped++
				continue
			}

			i, exists := index[main]
			if !exists {
				i = len(records)
				index[main] = i
				seen[main] = make(map[Relation]bool)
				records = append(records, Record{
					MainEntity: main,
					Properties: make(map[string]any),
					Relations:  []Relation{},
				})
			}
			rec := &records[i]

			for _, f := range props {
				v := row[f.Column]
				if isEmptyValue(v) {
					continue
				}
				if _, set := rec.Properties[f.Key()]; !set {
					rec.Properties[f.Key()] = v
				}
			}

			if !isRelation {
				continue
			}
			rel := Relation{
				Source:   stringValue(row[sourceCol]),
				Relation: stringValue(row[relationCol]),
				Target:   stringValue(row[targetCol]),
			}
			if rel.Target == "" || seen[main][rel] {
				continue
			}
			seen[main][rel] = true
			rec.Relations = append(rec.Relations, rel)
		}
	}
	return records, dropped
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func isEmptyValue(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	case []any:
		return len(s) == 0
	case []string:
		return len(s) == 0
	default:
		return false
	}
}
