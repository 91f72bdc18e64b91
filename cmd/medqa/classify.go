package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/medqa/cmd/medqa/internal"
	"github.com/zero-day-ai/medqa/internal/intent"
)

type classification struct {
	Question string `json:"question"`
	intent.Result
}

func (c *cli) classifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <question>",
		Short: "Show the entities and intents of a question without querying the graph",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runClassify,
	}
}

func (c *cli) runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		return internal.NewCLIError(internal.ExitUsage, "question is empty")
	}

	a, err := c.newApp(ctx, cmd, 0)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	res := a.classifier.ClassifyQuestion(question)
	res = a.fallback.Resolve(ctx, question, res)

	result := classification{Question: question, Result: res}
	return c.printer(cmd).Result(result, func(w io.Writer) error {
		entities, intents := "-", "-"
		if len(res.Entities) > 0 {
			entities = formatEntities(res.Entities)
		}
		if len(res.Intents) > 0 {
			intents = formatIntents(res.Intents)
		}
		_, err := fmt.Fprintf(w, "Question: %s\nEntities: %s\nIntents:  %s\n", question, entities, intents)
		return err
	})
}
