// Package kg provides parameterised lookups over the medical knowledge graph:
// entity search, relation listing, disease profiles, similar diseases and
// per-label counts. Every lookup runs through the graph Executor and shares
// its retry and soft-fail behavior, so a failing database yields empty
// results rather than errors. Errors are returned only for invalid input.
package kg

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/internal/lexicon"
	"github.com/zero-day-ai/medqa/internal/types"
)

const (
	// MaxLimit bounds every result list.
	MaxLimit = 100

	// DefaultSearchLimit applies when SearchEntities is given a zero limit.
	DefaultSearchLimit = 20

	// DefaultSimilarLimit applies when SimilarDiseases is given a zero limit.
	DefaultSimilarLimit = 10
)

// Entity is a node found by SearchEntities.
type Entity struct {
	Name        string           `json:"name"`
	Category    lexicon.Category `json:"category,omitempty"`
	DisplayName string           `json:"display_name,omitempty"`
}

// Edge is one relationship of an entity, in graph direction.
type Edge struct {
	Source         string           `json:"source"`
	Relation       Relation         `json:"relation"`
	RelationName   string           `json:"relation_name"`
	Target         string           `json:"target"`
	TargetCategory lexicon.Category `json:"target_category,omitempty"`
}

// DiseaseInfo is the profile of one disease.
type DiseaseInfo struct {
	Name             string         `json:"name"`
	Properties       map[string]any `json:"properties,omitempty"`
	Symptoms         []string       `json:"symptoms"`
	Checks           []string       `json:"checks"`
	Drugs            []string       `json:"drugs"`
	RelatedDiseases  []string       `json:"related_diseases"`
	RecommendedFoods []string       `json:"recommended_foods"`
	AvoidFoods       []string       `json:"avoid_foods"`
}

// SimilarDisease is a disease related to the queried one.
type SimilarDisease struct {
	Disease string `json:"disease"`
	// Shared is the number of common symptoms, or 1 for an accompany link.
	Shared int64  `json:"shared"`
	Basis  string `json:"basis"`
}

// Explorer runs knowledge-graph lookups.
type Explorer struct {
	executor *graph.Executor
	logger   *slog.Logger
}

// NewExplorer creates an explorer over executor.
func NewExplorer(executor *graph.Executor, logger *slog.Logger) *Explorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Explorer{executor: executor, logger: logger}
}

// ClampLimit maps limit into [1, MaxLimit]; zero selects def.
func ClampLimit(limit, def int) int {
	if limit == 0 {
		limit = def
	}
	return max(1, min(limit, MaxLimit))
}

func labelOf(c lexicon.Category) (string, error) {
	if !c.IsValid() || c.Label() == "" {
		return "", types.NewError(types.CATEGORY_UNKNOWN, fmt.Sprintf("category %q has no graph label", c))
	}
	return c.Label(), nil
}

// SearchEntities finds nodes whose name contains keyword, optionally
// restricted to categories.
func (e *Explorer) SearchEntities(ctx context.Context, keyword string, categories []lexicon.Category, limit int) ([]Entity, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, types.NewError(types.INPUT_INVALID, "search keyword is empty")
	}

	where := "n.name CONTAINS $keyword"
	if len(categories) > 0 {
		conds := make([]string, 0, len(categories))
		for _, c := range categories {
			label, err := labelOf(c)
			if err != nil {
				return nil, err
			}
			conds = append(conds, "n:"+label)
		}
		where = "(" + strings.Join(conds, " OR ") + ") AND " + where
	}

	cypher := "MATCH (n) WHERE " + where + `
RETURN n.name AS name, labels(n) AS labels
ORDER BY name
LIMIT $limit`
	rows := e.executor.ExecuteOne(ctx, cypher, map[string]any{
		"keyword": keyword,
		"limit":   ClampLimit(limit, DefaultSearchLimit),
	})

	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		name := stringOf(row["name"])
		if name == "" {
			continue
		}
		ent := Entity{Name: name}
		if c, ok := categoryOf(row["labels"]); ok {
			ent.Category = c
			ent.DisplayName = c.DisplayName()
		}
		out = append(out, ent)
	}
	return out, nil
}

// EntityRelations lists the outgoing and incoming relationships of the node
// named name. An empty relation or category matches any.
func (e *Explorer) EntityRelations(ctx context.Context, name string, relation Relation, category lexicon.Category) ([]Edge, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.NewError(types.INPUT_INVALID, "entity name is empty")
	}

	var node, rel string
	if category != "" {
		label, err := labelOf(category)
		if err != nil {
			return nil, err
		}
		node = ":" + label
	}
	if relation != "" {
		if !relation.IsValid() {
			return nil, types.NewError(types.RELATION_UNKNOWN, fmt.Sprintf("unknown relation %q", relation))
		}
		rel = ":" + relation.String()
	}

	cypher := fmt.Sprintf(`CALL {
  MATCH (n%[1]s {name: $name})-[r%[2]s]->(m)
  RETURN n.name AS source, type(r) AS relation, m.name AS target, labels(m) AS target_labels
  UNION
  MATCH (m)-[r%[2]s]->(n%[1]s {name: $name})
  RETURN m.name AS source, type(r) AS relation, n.name AS target, labels(n) AS target_labels
}
RETURN source, relation, target, target_labels
LIMIT $limit`, node, rel)

	rows := e.executor.ExecuteOne(ctx, cypher, map[string]any{"name": name, "limit": MaxLimit})

	out := make([]Edge, 0, len(rows))
	for _, row := range rows {
		edge := Edge{
			Source:   stringOf(row["source"]),
			Relation: Relation(stringOf(row["relation"])),
			Target:   stringOf(row["target"]),
		}
		if edge.Source == "" || edge.Target == "" {
			continue
		}
		edge.RelationName = edge.Relation.DisplayName()
		if c, ok := categoryOf(row["target_labels"]); ok {
			edge.TargetCategory = c
		}
		out = append(out, edge)
	}
	return out, nil
}

const diseaseInfoCypher = `MATCH (d:Disease {name: $name})
RETURN properties(d) AS props,
  [(d)-[:has_symptom]->(s:Symptom) | s.name] AS symptoms,
  [(d)-[:need_check]->(c:Check) | c.name] AS checks,
  [(d)-[:recommand_drug]->(g:Drug) | g.name] AS drugs,
  [(d)-[:acompany_with]->(a:Disease) | a.name] AS related_diseases,
  [(d)-[:recommand_eat]->(f:Food) | f.name] AS recommended_foods,
  [(d)-[:no_eat]->(x:Food) | x.name] AS avoid_foods
LIMIT 1`

// DiseaseInfo returns the profile of the disease named name. The boolean is
// false when no such disease exists or the graph could not be read.
func (e *Explorer) DiseaseInfo(ctx context.Context, name string) (DiseaseInfo, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DiseaseInfo{}, false, types.NewError(types.INPUT_INVALID, "disease name is empty")
	}

	rows := e.executor.ExecuteOne(ctx, diseaseInfoCypher, map[string]any{"name": name})
	if len(rows) == 0 {
		return DiseaseInfo{}, false, nil
	}
	row := rows[0]

	info := DiseaseInfo{
		Name:             name,
		Symptoms:         stringsOf(row["symptoms"]),
		Checks:           stringsOf(row["checks"]),
		Drugs:            stringsOf(row["drugs"]),
		RelatedDiseases:  stringsOf(row["related_diseases"]),
		RecommendedFoods: stringsOf(row["recommended_foods"]),
		AvoidFoods:       stringsOf(row["avoid_foods"]),
	}
	if props, ok := row["props"].(map[string]any); ok {
		info.Properties = make(map[string]any, len(props))
		for k, v := range props {
			if k != "name" {
				info.Properties[k] = v
			}
		}
	}
	return info, true, nil
}

const similarCypher = `CALL {
  MATCH (d:Disease {name: $name})-[:has_symptom]->(s:Symptom)<-[:has_symptom]-(other:Disease)
  WHERE other.name <> $name
  RETURN other.name AS disease, count(DISTINCT s) AS shared, 'symptom' AS basis
  UNION
  MATCH (d:Disease {name: $name})-[:acompany_with]-(other:Disease)
  WHERE other.name <> $name
  RETURN other.name AS disease, 1 AS shared, 'acompany' AS basis
}
RETURN disease, shared, basis
ORDER BY shared DESC, disease
LIMIT $limit`

// SimilarDiseases ranks diseases sharing symptoms with, or accompanying, the
// disease named name. A disease reached both ways is reported once with its
// higher score.
func (e *Explorer) SimilarDiseases(ctx context.Context, name string, limit int) ([]SimilarDisease, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.NewError(types.INPUT_INVALID, "disease name is empty")
	}
	limit = ClampLimit(limit, DefaultSimilarLimit)

	rows := e.executor.ExecuteOne(ctx, similarCypher, map[string]any{"name": name, "limit": 2 * limit})

	best := make(map[string]SimilarDisease, len(rows))
	for _, row := range rows {
		s := SimilarDisease{
			Disease: stringOf(row["disease"]),
			Shared:  int64Of(row["shared"]),
			Basis:   stringOf(row["basis"]),
		}
		if s.Disease == "" {
			continue
		}
		if prev, ok := best[s.Disease]; !ok || s.Shared > prev.Shared {
			best[s.Disease] = s
		}
	}

	out := make([]SimilarDisease, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b SimilarDisease) int {
		if c := cmp.Compare(b.Shared, a.Shared); c != 0 {
			return c
		}
		return strings.Compare(a.Disease, b.Disease)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByCategory returns the number of nodes per entity category.
// Categories with no nodes are reported as zero.
func (e *Explorer) CountByCategory(ctx context.Context) map[lexicon.Category]int64 {
	cats := lexicon.Categories()
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = fmt.Sprintf("MATCH (n:%s) RETURN '%s' AS category, count(n) AS count", c.Label(), c)
	}

	rows := e.executor.ExecuteOne(ctx, strings.Join(parts, "\nUNION ALL\n"), nil)

	out := make(map[lexicon.Category]int64, len(cats))
	for _, c := range cats {
		out[c] = 0
	}
	for _, row := range rows {
		c, err := lexicon.ParseCategory(stringOf(row["category"]))
		if err != nil {
			e.logger.WarnContext(ctx, "ignoring count for unknown category", "category", row["category"])
			continue
		}
		out[c] = int64Of(row["count"])
	}
	return out
}

// CountByRelation returns the number of relationships per relation type.
// Types outside the catalog are included under their raw name.
func (e *Explorer) CountByRelation(ctx context.Context) map[Relation]int64 {
	rows := e.executor.ExecuteOne(ctx,
		"MATCH ()-[r]->() RETURN type(r) AS relation, count(r) AS count", nil)

	out := make(map[Relation]int64, len(rows))
	for _, row := range rows {
		if r := stringOf(row["relation"]); r != "" {
			out[Relation(r)] = int64Of(row["count"])
		}
	}
	return out
}
