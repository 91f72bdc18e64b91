package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/internal/intent"
	"github.com/zero-day-ai/medqa/internal/matcher"
	"github.com/zero-day-ai/medqa/internal/qa"
)

// noAnswer is printed for questions the pipeline could not answer.
const noAnswer = "抱歉，暂时无法回答您的问题。"

func (c *cli) askCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question | -]",
		Short: "Answer a medical question from the knowledge graph",
		Long: `Answer a medical question from the knowledge graph.

The arguments are joined into one question. With no arguments, or "-",
questions are read from standard input one per line until EOF.`,
		Example: `  medqa ask 高血压有哪些症状
  echo 感冒吃什么药好 | medqa ask -o json -`,
		RunE: c.runAsk,
	}
}

func (c *cli) runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := c.newApp(ctx, cmd, withGraph|withCache)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	out := c.printer(cmd)
	answer := func(question string) error {
		ans := a.service.Answer(ctx, question)
		return out.Result(ans, func(w io.Writer) error {
			return writeAnswer(w, ans)
		})
	}

	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return answer(strings.Join(args, " "))
	}

	scanner := bufio.NewScanner(c.stdin)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := answer(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func writeAnswer(w io.Writer, ans qa.Answer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", ans.Question)
	fmt.Fprintf(&b, "Outcome:  %s\n", ans.Outcome)
	if len(ans.Entities) > 0 {
		fmt.Fprintf(&b, "Entities: %s\n", formatEntities(ans.Entities))
	}
	if len(ans.Intents) > 0 {
		fmt.Fprintf(&b, "Intents:  %s\n", formatIntents(ans.Intents))
	}

	if !ans.Outcome.HasRecords() {
		fmt.Fprintln(&b, noAnswer)
	}
	for _, rec := range ans.Records {
		writeRecord(&b, rec)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRecord(b *strings.Builder, rec graph.Record) {
	fmt.Fprintf(b, "\n%s\n", rec.MainEntity)
	for _, key := range slices.Sorted(maps.Keys(rec.Properties)) {
		fmt.Fprintf(b, "  %s: %v\n", key, rec.Properties[key])
	}

	// Group targets by (source, relation) in first-seen order.
	type group struct {
		source, relation string
		targets          []string
	}
	var groups []*group
	index := make(map[[2]string]*group)
	for _, r := range rec.Relations {
		k := [2]string{r.Source, r.Relation}
		g, ok := index[k]
		if !ok {
			g = &group{source: r.Source, relation: r.Relation}
			index[k] = g
			groups = append(groups, g)
		}
		g.targets = append(g.targets, r.Target)
	}
	for _, g := range groups {
		if g.source == rec.MainEntity {
			fmt.Fprintf(b, "  %s: %s\n", g.relation, strings.Join(g.targets, "、"))
		} else {
			fmt.Fprintf(b, "  %s %s: %s\n", g.source, g.relation, strings.Join(g.targets, "、"))
		}
	}
}

func formatEntities(entities matcher.Entities) string {
	parts := make([]string, len(entities))
	for i, e := range entities {
		cats := make([]string, len(e.Categories))
		for j, c := range e.Categories {
			cats[j] = c.String()
		}
		parts[i] = fmt.Sprintf("%s (%s)", e.Term, strings.Join(cats, ", "))
	}
	return strings.Join(parts, "; ")
}

func formatIntents(intents []intent.Intent) string {
	parts := make([]string, len(intents))
	for i, in := range intents {
		parts[i] = in.String()
	}
	return strings.Join(parts, ", ")
}
