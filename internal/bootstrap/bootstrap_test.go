package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/logger"
)

func testRuntime(buf *bytes.Buffer) *Runtime {
	return &Runtime{
		Kind:   "test",
		Config: &config.Config{App: config.AppConfig{Env: "test"}},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: buf}),
	}
}

func TestCloseRunsNewestFirstAndReportsFailures(t *testing.T) {
	var buf bytes.Buffer
	rt := testRuntime(&buf)

	var order []string
	rt.onClose("database", func() error { order = append(order, "database"); return nil })
	rt.onClose("redis", func() error { order = append(order, "redis"); return errors.New("conn reset") })
	rt.onClose("pubsub", func() error { order = append(order, "pubsub"); return nil })

	rt.Close()

	assert.Equal(t, []string{"pubsub", "redis", "database"}, order)
	assert.Contains(t, buf.String(), "shutdown.close_failed")
	assert.Contains(t, buf.String(), "close redis: conn reset")

	order = nil
	rt.Close()
	assert.Empty(t, order, "closers run once")
}

func TestCloseIsQuietWhenEverythingCloses(t *testing.T) {
	var buf bytes.Buffer
	rt := testRuntime(&buf)
	rt.onClose("database", func() error { return nil })

	rt.Close()

	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestSignalContextCancelsOnSIGTERM(t *testing.T) {
	var buf bytes.Buffer
	rt := testRuntime(&buf)

	ctx, stop := rt.SignalContext(context.Background())
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
}
