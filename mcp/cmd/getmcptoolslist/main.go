package main

import (
	"context"
	"fmt"
	"os"
	"time"

	seammcp "pkt.systems/seammcp/mcp"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := seammcp.BuildToolsListResponseJSON(ctx, seammcp.Config{})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "getmcptoolslist: %v\n", err)
		os.Exit(1)
	}
	_, _ = os.Stdout.Write(out)
}
