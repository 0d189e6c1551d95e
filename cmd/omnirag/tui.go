package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/omnirag"
	bt "github.com/fwojciec/omnirag/bubbletea"
	"github.com/fwojciec/omnirag/json"
	"github.com/spf13/cobra"
)

func newTUICmd(opts *options) *cobra.Command {
	var (
		docs       []string
		transcript string
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Chat in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			// Logs would corrupt the screen; they go to --log-file or nowhere.
			a, err := opts.newApp(ctx, cfg, nil, io.Discard)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.open(ctx, docs); err != nil {
				return err
			}

			if err := bt.Run(ctx, bt.New(a.chat, omnirag.DefaultTheme())); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}

			if transcript != "" && len(a.chat.Messages()) > 0 {
				if err := json.Save(transcript, a.chat.Transcript()); err != nil {
					return fmt.Errorf("save transcript: %w", err)
				}
				fmt.Fprintf(opts.stderr, "Transcript saved to %s\n", transcript)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&docs, "doc", nil, "File, directory or glob to add at startup (repeatable)")
	cmd.Flags().StringVar(&transcript, "transcript", "", "Save the transcript to this path on exit")
	return cmd
}
