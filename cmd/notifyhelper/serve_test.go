package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"
)

func TestMonitorParentProcess_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		// The test binary's parent (go test) stays alive, so only cancellation ends this
		monitorParentProcess(ctx, log.NewNopLogger(), 10*time.Millisecond)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Error("monitor did not stop after cancel")
	}
}

func TestDefaultSocketPath(t *testing.T) {
	t.Parallel()

	require.True(t, strings.Contains(defaultSocketPath(), "mofumofu_notifyhelper.sock"))
}
