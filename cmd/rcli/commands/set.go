package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/rserve-client/internal/protocol/qap1"
)

var setCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Set a variable in the server's workspace",
	Long: `Assign value to name in the server's global workspace.

value is parsed as a 32-bit integer, falling back to a double, and finally
a string if neither parse succeeds. Use a comma-separated list to send a
vector, e.g. "1,2,3".`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	client, cfg, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	name := args[0]
	value := parseValue(args[1])

	if cfg.Server.RequestTimeout > 0 {
		var reqCancel context.CancelFunc
		ctx, reqCancel = context.WithTimeout(ctx, cfg.Server.RequestTimeout)
		defer reqCancel()
	}

	if err := client.SetVariable(ctx, name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}

	cmd.Printf("%s set\n", name)
	return nil
}

// parseValue turns a CLI argument into a Sexp, preferring the narrowest
// type the text parses as: int, then double, then string. A comma
// produces a vector of the narrowest type common to all elements.
func parseValue(raw string) qap1.Sexp {
	parts := strings.Split(raw, ",")
	if len(parts) == 1 {
		return parseScalar(parts[0])
	}

	ints := make(qap1.ArrayInt, len(parts))
	allInt := true
	doubles := make(qap1.ArrayDouble, len(parts))
	allDouble := true

	for i, p := range parts {
		p = strings.TrimSpace(p)
		if n, err := strconv.ParseInt(p, 10, 32); err == nil {
			ints[i] = qap1.IntVal(int32(n))
		} else {
			allInt = false
		}
		if f, err := strconv.ParseFloat(p, 64); err == nil {
			doubles[i] = qap1.DoubleVal(f)
		} else {
			allDouble = false
		}
	}

	if allInt {
		return ints
	}
	if allDouble {
		return doubles
	}

	strs := make(qap1.ArrayStr, len(parts))
	for i, p := range parts {
		strs[i] = qap1.StrVal(strings.TrimSpace(p))
	}
	return strs
}

func parseScalar(raw string) qap1.Sexp {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return qap1.ArrayInt{qap1.IntVal(int32(n))}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return qap1.ArrayDouble{qap1.DoubleVal(f)}
	}
	return qap1.ArrayStr{qap1.StrVal(raw)}
}
