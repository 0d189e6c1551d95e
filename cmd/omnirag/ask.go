package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/omnirag"
	"github.com/spf13/cobra"
)

func newAskCmd(opts *options) *cobra.Command {
	var docs []string
	cmd := &cobra.Command{
		Use:   "ask [flags] <question>",
		Short: "Ask one question and stream the answer to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := opts.newApp(ctx, cfg, nil, opts.stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.open(ctx, docs); err != nil {
				return err
			}
			if a.chat.Session() == nil {
				return a.chat.Err()
			}

			out := opts.stdout
			printed := 0
			msg, err := a.chat.Send(ctx, strings.Join(args, " "), omnirag.WithUpdateHandler(func(m omnirag.Message) {
				if m.Role != omnirag.RoleModel || m.Failed {
					return
				}
				// Content only grows while streaming.
				if len(m.Content) > printed {
					fmt.Fprint(out, m.Content[printed:])
					printed = len(m.Content)
				}
			}))
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			printCitations(out, msg)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&docs, "doc", nil, "File, directory or glob to use as context (repeatable)")
	return cmd
}

// printCitations lists the web sources of msg as numbered references.
func printCitations(w io.Writer, msg omnirag.Message) {
	var refs []*omnirag.WebReference
	for _, c := range msg.Citations() {
		if c.Web != nil && c.Web.URI != "" {
			refs = append(refs, c.Web)
		}
	}
	if len(refs) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, r := range refs {
		if r.Title == "" {
			fmt.Fprintf(w, "[%d] %s\n", i+1, r.URI)
			continue
		}
		fmt.Fprintf(w, "[%d] %s - %s\n", i+1, r.Title, r.URI)
	}
}
