package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/medqa/cmd/medqa/internal"
)

func (c *cli) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the answer cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "invalidate [prefix]",
		Short: "Delete cached answers whose key starts with prefix, or all of them",
		Long: `Delete cached answers from the in-memory and Redis tiers.

Keys have the form "qa:<md5 of the question>". Without a prefix every
cached answer is removed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runCacheInvalidate,
	})
	return cmd
}

func (c *cli) runCacheInvalidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var prefix string
	if len(args) == 1 {
		prefix = args[0]
	}

	a, err := c.newApp(ctx, cmd, withCache)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	n, err := a.cache.Invalidate(ctx, prefix)
	if err != nil {
		return internal.WrapError(internal.ExitError, "cache invalidation failed", err)
	}
	res := invalidation{Prefix: prefix, Removed: n}
	return c.printer(cmd).Result(res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "removed %d cached answers\n", n)
		return err
	})
}

type invalidation struct {
	Prefix  string `json:"prefix"`
	Removed int    `json:"removed"`
}
