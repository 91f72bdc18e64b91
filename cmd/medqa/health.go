package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/medqa/cmd/medqa/internal"
	"github.com/zero-day-ai/medqa/internal/types"
)

type healthReport struct {
	Status     types.HealthStatus            `json:"status"`
	Components map[string]types.HealthStatus `json:"components"`
}

func (c *cli) healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the graph database and cache",
		Args:  cobra.NoArgs,
		RunE:  c.runHealth,
	}
}

func (c *cli) runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := c.newApp(ctx, cmd, withGraph|withCache)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	report := healthReport{
		Status: a.service.Health(ctx),
		Components: map[string]types.HealthStatus{
			"graph": a.client.Health(ctx),
			"cache": a.cache.Health(ctx),
		},
	}

	rows := [][]string{
		{"graph", report.Components["graph"].State.String(), report.Components["graph"].Message},
		{"cache", report.Components["cache"].State.String(), report.Components["cache"].Message},
	}
	if err := c.printer(cmd).Table(report, []string{"component", "state", "message"}, rows); err != nil {
		return err
	}

	if report.Status.State == types.HealthStateUnhealthy {
		return internal.NewCLIError(internal.ExitUnhealthy, "unhealthy: "+report.Status.Message)
	}
	return nil
}
