//go:build integration

package rserve_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/rserve-client/internal/protocol/qap1"
	"github.com/marmos91/rserve-client/pkg/rclient"
)

// rserveHelper manages the Rserve container for integration tests.
type rserveHelper struct {
	container testcontainers.Container
	addr      string
}

// newRserveHelper starts an Rserve container or connects to an existing one.
func newRserveHelper(t *testing.T) *rserveHelper {
	t.Helper()
	ctx := context.Background()

	if addr := os.Getenv("RSERVE_ADDR"); addr != "" {
		return &rserveHelper{addr: addr}
	}

	req := testcontainers.ContainerRequest{
		Image:        "fjukstad/rserve:latest",
		ExposedPorts: []string{"6311/tcp"},
		WaitingFor:   wait.ForListeningPort("6311/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start rserve container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6311")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container port: %v", err)
	}

	return &rserveHelper{
		container: container,
		addr:      fmt.Sprintf("%s:%s", host, port.Port()),
	}
}

func (rh *rserveHelper) cleanup() {
	if rh.container != nil {
		ctx := context.Background()
		_ = rh.container.Terminate(ctx)
	}
}

func (rh *rserveHelper) connect(t *testing.T) *rclient.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := rclient.Connect(ctx, rh.addr, rclient.Options{DialTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("failed to connect to rserve at %s: %v", rh.addr, err)
	}
	return client
}

// TestEval_Integration evaluates a simple numeric expression against a real
// Rserve instance and checks the decoded result.
func TestEval_Integration(t *testing.T) {
	helper := newRserveHelper(t)
	defer helper.cleanup()

	client := helper.connect(t)
	defer client.Close()

	value, err := client.Eval(context.Background(), "1 + 1")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	doubles, err := rclient.AsDoubles(value)
	if err != nil {
		t.Fatalf("unexpected result shape: %v", err)
	}
	if len(doubles) != 1 || doubles[0] != 2 {
		t.Fatalf("expected [2], got %v", doubles)
	}
}

// TestSetVariableThenEval_Integration assigns a variable with CMD_setSEXP
// and reads it back with a follow-up eval.
func TestSetVariableThenEval_Integration(t *testing.T) {
	helper := newRserveHelper(t)
	defer helper.cleanup()

	client := helper.connect(t)
	defer client.Close()

	ctx := context.Background()
	arr := qap1.ArrayDouble{qap1.DoubleVal(1), qap1.DoubleVal(2), qap1.DoubleVal(3)}
	if err := client.SetVariable(ctx, "x", arr); err != nil {
		t.Fatalf("set variable failed: %v", err)
	}

	value, err := client.Eval(ctx, "sum(x)")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	doubles, err := rclient.AsDoubles(value)
	if err != nil {
		t.Fatalf("unexpected result shape: %v", err)
	}
	if len(doubles) != 1 || doubles[0] != 6 {
		t.Fatalf("expected [6], got %v", doubles)
	}
}

// TestEvalDataFrame_Integration exercises UnwrapDataFrame against a real
// data.frame value returned by the server.
func TestEvalDataFrame_Integration(t *testing.T) {
	helper := newRserveHelper(t)
	defer helper.cleanup()

	client := helper.connect(t)
	defer client.Close()

	value, err := client.Eval(context.Background(), `data.frame(a=1:3, b=c("x","y","z"))`)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	df, err := rclient.UnwrapDataFrame(value)
	if err != nil {
		t.Fatalf("UnwrapDataFrame failed: %v", err)
	}
	if len(df.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(df.Columns))
	}
	if df.NRow != 3 {
		t.Fatalf("expected 3 rows, got %d", df.NRow)
	}
}
