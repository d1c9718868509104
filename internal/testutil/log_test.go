package testutil_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nspcc-dev/seqtree/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewBufferedLogger(t *testing.T) {
	t.Run("entries", func(t *testing.T) {
		l, lb := testutil.NewBufferedLogger(t, zap.DebugLevel)
		lb.AssertEmpty()

		l.Debug("foo", zap.Int("int", 1), zap.Duration("dur", 123*time.Millisecond))
		l.Warn("bar", zap.String("path", "/tmp/x"))

		require.Equal(t, []testutil.LogEntry{
			{Level: zap.DebugLevel, Message: "foo", Fields: map[string]any{
				"int": json.Number("1"),
				"dur": json.Number("0.123"),
			}},
			{Level: zap.WarnLevel, Message: "bar", Fields: map[string]any{
				"path": "/tmp/x",
			}},
		}, lb.Entries())

		lb.AssertContains(zap.WarnLevel, "bar")
		require.Equal(t, 1, lb.Count("foo"))
		require.Zero(t, lb.Count("baz"))
	})

	t.Run("min level", func(t *testing.T) {
		for _, lvl := range []zapcore.Level{zap.InfoLevel, zap.WarnLevel, zap.ErrorLevel} {
			l, lb := testutil.NewBufferedLogger(t, lvl)
			l.Debug("debug")
			if lvl > zap.InfoLevel {
				l.Info("info")
			}
			lb.AssertEmpty()

			l.Error("error")
			lb.AssertContains(zap.ErrorLevel, "error")
		}
	})
}
