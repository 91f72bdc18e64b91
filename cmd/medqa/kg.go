package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/medqa/cmd/medqa/internal"
	"github.com/zero-day-ai/medqa/internal/kg"
	"github.com/zero-day-ai/medqa/internal/lexicon"
)

func (c *cli) kgCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kg",
		Short: "Explore the medical knowledge graph",
	}
	cmd.AddCommand(c.kgSearchCommand())
	cmd.AddCommand(c.kgRelationsCommand())
	cmd.AddCommand(c.kgDiseaseCommand())
	cmd.AddCommand(c.kgSimilarCommand())
	cmd.AddCommand(c.kgCountsCommand())
	return cmd
}

// withExplorer builds a graph-only app, runs fn and closes the app.
func (c *cli) withExplorer(cmd *cobra.Command, fn func(ctx context.Context, e *kg.Explorer) error) error {
	ctx := cmd.Context()
	a, err := c.newApp(ctx, cmd, withGraph)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))
	return fn(ctx, a.explorer)
}

func parseCategories(names []string) ([]lexicon.Category, error) {
	out := make([]lexicon.Category, 0, len(names))
	for _, n := range names {
		c, err := lexicon.ParseCategory(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (c *cli) kgSearchCommand() *cobra.Command {
	var (
		categories []string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find entities whose name contains keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := parseCategories(categories)
			if err != nil {
				return err
			}
			return c.withExplorer(cmd, func(ctx context.Context, e *kg.Explorer) error {
				entities, err := e.SearchEntities(ctx, args[0], cats, limit)
				if err != nil {
					return err
				}
				rows := make([][]string, len(entities))
				for i, ent := range entities {
					rows[i] = []string{ent.Name, ent.Category.String(), ent.DisplayName}
				}
				return c.printer(cmd).Table(entities, []string{"name", "category", "display"}, rows)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "Restrict to categories (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", kg.DefaultSearchLimit, "Maximum number of results (1-100)")
	return cmd
}

func (c *cli) kgRelationsCommand() *cobra.Command {
	var relation, category string
	cmd := &cobra.Command{
		Use:   "relations <name>",
		Short: "List the relationships of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rel kg.Relation
			if relation != "" {
				r, err := kg.ParseRelation(relation)
				if err != nil {
					return err
				}
				rel = r
			}
			var cat lexicon.Category
			if category != "" {
				parsed, err := lexicon.ParseCategory(category)
				if err != nil {
					return err
				}
				cat = parsed
			}
			return c.withExplorer(cmd, func(ctx context.Context, e *kg.Explorer) error {
				edges, err := e.EntityRelations(ctx, args[0], rel, cat)
				if err != nil {
					return err
				}
				rows := make([][]string, len(edges))
				for i, edge := range edges {
					rows[i] = []string{edge.Source, edge.RelationName, edge.Target, edge.TargetCategory.String()}
				}
				return c.printer(cmd).Table(edges, []string{"source", "relation", "target", "category"}, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&relation, "relation", "r", "", "Only this relation type")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only when the entity has this category")
	return cmd
}

func (c *cli) kgDiseaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disease <name>",
		Short: "Show the profile of a disease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withExplorer(cmd, func(ctx context.Context, e *kg.Explorer) error {
				info, found, err := e.DiseaseInfo(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					return internal.NewCLIError(internal.ExitError, fmt.Sprintf("disease %q not found", args[0]))
				}
				return c.printer(cmd).Result(info, func(w io.Writer) error {
					return writeDiseaseInfo(w, info)
				})
			})
		},
	}
}

func writeDiseaseInfo(w io.Writer, info kg.DiseaseInfo) error {
	if _, err := fmt.Fprintf(w, "%s\n", info.Name); err != nil {
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(info.Properties)) {
		if _, err := fmt.Fprintf(w, "  %s: %v\n", key, info.Properties[key]); err != nil {
			return err
		}
	}
	lists := []struct {
		label string
		items []string
	}{
		{"symptoms", info.Symptoms},
		{"checks", info.Checks},
		{"drugs", info.Drugs},
		{"related diseases", info.RelatedDiseases},
		{"recommended foods", info.RecommendedFoods},
		{"avoid foods", info.AvoidFoods},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s: %s\n", l.label, strings.Join(l.items, "、")); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) kgSimilarCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "similar <disease>",
		Short: "Rank diseases sharing symptoms with a disease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withExplorer(cmd, func(ctx context.Context, e *kg.Explorer) error {
				similar, err := e.SimilarDiseases(ctx, args[0], limit)
				if err != nil {
					return err
				}
				rows := make([][]string, len(similar))
				for i, s := range similar {
					rows[i] = []string{s.Disease, strconv.FormatInt(s.Shared, 10), s.Basis}
				}
				return c.printer(cmd).Table(similar, []string{"disease", "shared", "basis"}, rows)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", kg.DefaultSimilarLimit, "Maximum number of results (1-100)")
	return cmd
}

type graphCounts struct {
	Categories map[lexicon.Category]int64 `json:"categories"`
	Relations  map[kg.Relation]int64      `json:"relations"`
}

func (c *cli) kgCountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Count nodes per category and relationships per type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withExplorer(cmd, func(ctx context.Context, e *kg.Explorer) error {
				counts := graphCounts{
					Categories: e.CountByCategory(ctx),
					Relations:  e.CountByRelation(ctx),
				}
				var rows [][]string
				for _, cat := range lexicon.Categories() {
					rows = append(rows, []string{"node", cat.DisplayName() + " (" + cat.String() + ")",
						strconv.FormatInt(counts.Categories[cat], 10)})
				}
				for _, rel := range slices.Sorted(maps.Keys(counts.Relations)) {
					rows = append(rows, []string{"relationship", rel.DisplayName() + " (" + rel.String() + ")",
						strconv.FormatInt(counts.Relations[rel], 10)})
				}
				return c.printer(cmd).Table(counts, []string{"kind", "type", "count"}, rows)
			})
		},
	}
}
