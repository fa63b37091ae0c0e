package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/rserve-client/cmd/rcli/output"
	"github.com/marmos91/rserve-client/internal/protocol/qap1"
	"github.com/marmos91/rserve-client/pkg/rclient"
)

var evalVoid bool

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an R expression on the server",
	Long: `Send an R expression to the server for evaluation and print the result.

With --void, the expression is evaluated for side effects only and no
result is requested or printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().BoolVar(&evalVoid, "void", false, "Evaluate without requesting a result")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	client, cfg, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	expr := args[0]

	if cfg.Server.RequestTimeout > 0 {
		var reqCancel context.CancelFunc
		ctx, reqCancel = context.WithTimeout(ctx, cfg.Server.RequestTimeout)
		defer reqCancel()
	}

	if evalVoid {
		if err := client.EvalVoid(ctx, expr); err != nil {
			return fmt.Errorf("eval: %w", err)
		}
		return nil
	}

	value, err := client.Eval(ctx, expr)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}

	return renderResult(value)
}

// renderResult prints a decoded Sexp as an index/value table when it
// unwraps to a slice (any Array* or a Vector), as a key/value table when it
// unwraps to a map (a ListTag or an attributed value), or as a single value
// otherwise.
func renderResult(value qap1.Sexp) error {
	switch value.(type) {
	case qap1.Null:
		return nil
	}

	unwrapped, err := rclient.Unwrap(value)
	if err != nil {
		return err
	}

	switch v := unwrapped.(type) {
	case map[string]any:
		pairs := make([][2]string, 0, len(v))
		for k, val := range v {
			pairs = append(pairs, [2]string{k, fmt.Sprintf("%v", val)})
		}
		return output.SimpleTable(os.Stdout, pairs)
	case []any:
		data := output.NewTableData("index", "value")
		for i, val := range v {
			data.AddRow(fmt.Sprintf("%d", i), fmt.Sprintf("%v", val))
		}
		return output.PrintTable(os.Stdout, data)
	default:
		fmt.Fprintf(os.Stdout, "%v\n", v)
		return nil
	}
}
