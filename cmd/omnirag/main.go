// Command omnirag answers questions about a set of uploaded documents,
// grounded in their content and, when enabled, in web search results.
//
// Usage:
//
//	GEMINI_API_KEY=... omnirag tui --doc 'notes/**/*.md'
//	GEMINI_API_KEY=... omnirag serve --addr :8080
//	ANTHROPIC_API_KEY=... omnirag ask --doc report.pdf.txt "What changed in Q3?"
//
// Settings come from flags, OMNIRAG_* environment variables, and an
// optional config file passed with --config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(newOptions(os.Getenv))
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "omnirag: %v\n", err)
		os.Exit(1)
	}
}
