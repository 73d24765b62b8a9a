package cmd

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// newTestRootCmd creates a fresh root command for testing, avoiding
// mutation of the global rootCmd which could cause race conditions in
// parallel tests.
func newTestRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zeroterm",
		Short: "Interactive inbox triage",
	}
}

func TestVersionCommandOutput(t *testing.T) {
	root := newTestRootCmd()
	root.AddCommand(versionCmd)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "zeroterm") {
		t.Errorf("version output = %q, want it to name the binary", out.String())
	}
}

// TestExecuteContextCancellationPropagates verifies that context
// cancellation from ExecuteContext reaches command handlers, which is
// what turns SIGINT into a clean shutdown.
func TestExecuteContextCancellationPropagates(t *testing.T) {
	var canceled atomic.Bool
	started := make(chan struct{})

	root := newTestRootCmd()
	root.AddCommand(&cobra.Command{
		Use: "wait",
		RunE: func(cmd *cobra.Command, args []string) error {
			close(started)
			select {
			case <-cmd.Context().Done():
				canceled.Store(true)
				return cmd.Context().Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		root.SetArgs([]string{"wait"})
		done <- root.ExecuteContext(ctx)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("command handler did not start in time")
	}

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("ExecuteContext error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command did not stop after cancellation")
	}
	if !canceled.Load() {
		t.Error("handler never observed the canceled context")
	}
}
