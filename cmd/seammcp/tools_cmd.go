package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "pkt.systems/seammcp/mcp"
)

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the MCP tools/list response as JSON (no credentials or network needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			payload, err := mcpserver.BuildToolsListResponseJSON(ctx, mcpserver.Config{})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", payload)
			return err
		},
	}
}
