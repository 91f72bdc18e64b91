package query

import "github.com/zero-day-ai/medqa/internal/intent"

// Query is a ready-to-run Cypher statement with its bound parameters.
type Query struct {
	Intent intent.Intent  `json:"intent"`
	Cypher string         `json:"cypher"`
	Params map[string]any `json:"params"`
	Shape  Shape          `json:"shape"`
}

// Task groups the queries generated for one intent.
type Task struct {
	Intent  intent.Intent `json:"intent"`
	Queries []Query       `json:"queries"`
}

// Generator expands classification results into query tasks.
type Generator struct {
	catalog *Catalog
}

// NewGenerator creates a generator over c.
func NewGenerator(c *Catalog) *Generator {
	return &Generator{catalog: c}
}

// Catalog returns the generator's template catalog.
func (g *Generator) Catalog() *Catalog {
	return g.catalog
}

// Generate produces one task per intent that has entities of its driving
// category. Queries are ordered by template variant, then by entity match
// order.
func (g *Generator) Generate(res intent.Result) []Task {
	if len(res.Entities) == 0 || len(res.Intents) == 0 {
		return nil
	}
	byCategory := res.Entities.ByCategory()

	var tasks []Task
	for _, i := range res.Intents {
		terms := byCategory[i.DrivingCategory()]
		templates := g.catalog.Templates(i)
		if len(terms) == 0 || len(templates) == 0 {
			continue
		}

		task := Task{Intent: i, Queries: make([]Query, 0, len(terms)*len(templates))}
		for _, t := range templates {
			for _, term := range terms {
				task.Queries = append(task.Queries, Query{
					Intent: i,
					Cypher: t.Cypher,
					Params: map[string]any{ParamName: term},
					Shape:  t.Shape,
				})
			}
		}
		tasks = append(tasks, task)
	}
	return tasks
}
