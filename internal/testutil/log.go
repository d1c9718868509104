package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogEntry is a decoded entry of a buffered logger.
type LogEntry struct {
	Level   zapcore.Level
	Message string
	// Numbers are kept as [json.Number].
	Fields map[string]any
}

// LogBuffer keeps JSON-encoded entries written by a logger returned from
// NewBufferedLogger.
type LogBuffer struct {
	t testing.TB

	mtx sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (x *LogBuffer) Write(p []byte) (int, error) {
	x.mtx.Lock()
	defer x.mtx.Unlock()
	return x.buf.Write(p)
}

// Sync implements zapcore.WriteSyncer.
func (x *LogBuffer) Sync() error { return nil }

// NewBufferedLogger returns logger writing entries of minLevel and above into
// the returned buffer.
func NewBufferedLogger(t testing.TB, minLevel zapcore.Level) (*zap.Logger, *LogBuffer) {
	lb := &LogBuffer{t: t}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""

	return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), lb, minLevel)), lb
}

// AssertEmpty fails the test if anything was logged.
func (x *LogBuffer) AssertEmpty() {
	require.Empty(x.t, x.Entries())
}

// AssertContains fails the test if there is no entry with the level and the
// message. Fields are ignored.
func (x *LogBuffer) AssertContains(lvl zapcore.Level, msg string) {
	for _, e := range x.Entries() {
		if e.Level == lvl && e.Message == msg {
			return
		}
	}
	require.Failf(x.t, "log entry not found", "level %s, message %q", lvl, msg)
}

// Count returns the number of entries with the message.
func (x *LogBuffer) Count(msg string) int {
	var n int
	for _, e := range x.Entries() {
		if e.Message == msg {
			n++
		}
	}
	return n
}

// Entries returns all entries in the order they were written.
func (x *LogBuffer) Entries() []LogEntry {
	x.mtx.Lock()
	lines := bytes.Split(bytes.TrimSpace(x.buf.Bytes()), []byte{'\n'})
	x.mtx.Unlock()

	var res []LogEntry
	for i := range lines {
		if len(lines[i]) == 0 {
			continue
		}

		e, err := parseEntry(lines[i])
		require.NoError(x.t, err, "line %d", i)

		res = append(res, e)
	}

	return res
}

func parseEntry(line []byte) (LogEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var m map[string]any
	err := dec.Decode(&m)
	if err != nil {
		return LogEntry{}, err
	}

	lvl, ok := m["level"].(string)
	if !ok {
		return LogEntry{}, fmt.Errorf("missing level in %s", line)
	}
	msg, ok := m["msg"].(string)
	if !ok {
		return LogEntry{}, fmt.Errorf("missing message in %s", line)
	}

	var e LogEntry

	e.Level, err = zapcore.ParseLevel(lvl)
	if err != nil {
		return LogEntry{}, err
	}

	delete(m, "level")
	delete(m, "msg")

	e.Message = msg
	e.Fields = m

	return e, nil
}
