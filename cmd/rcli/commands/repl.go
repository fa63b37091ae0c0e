package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/rserve-client/cmd/rcli/prompt"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive evaluation session",
	Long: `Start an interactive read-eval-print loop against the server: each
line is sent as an eval, and the result is printed.

Type .exit or press Ctrl-D to quit.`,
	RunE: runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	dialCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	client, cfg, err := connect(dialCtx)
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	cmd.Printf("connected to %s (.exit to quit)\n", cfg.Server.Address)

	for {
		raw, err := prompt.Input("r>", "")
		if err != nil {
			if prompt.IsAborted(err) {
				cmd.Println()
				return nil
			}
			return err
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if line == ".exit" || line == ".quit" {
			return nil
		}

		evalCtx := context.Background()
		var evalCancel context.CancelFunc = func() {}
		if cfg.Server.RequestTimeout > 0 {
			evalCtx, evalCancel = context.WithTimeout(evalCtx, cfg.Server.RequestTimeout)
		}

		value, err := client.Eval(evalCtx, line)
		evalCancel()
		if err != nil {
			cmd.PrintErrf("error: %v\n", err)
			continue
		}

		if err := renderResult(value); err != nil {
			cmd.PrintErrf("error: %v\n", err)
		}
	}
}
