package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Prm groups Logger's parameters.
type Prm struct {
	// link to the created Logger
	// instance; used for a runtime
	// reconfiguration
	level zap.AtomicLevel

	// support runtime rereading
	lvl zapcore.Level

	// output format, console by default
	encoding string
}

const (
	// EncodingConsole is a human-readable output format.
	EncodingConsole = "console"
	// EncodingJSON is a machine-readable output format.
	EncodingJSON = "json"
)

// SetLevelString sets the minimum logging level. Default is
// "info".
//
// Returns an error if s is not a string representation of a
// supporting logging level.
//
// Supports runtime rereading.
func (p *Prm) SetLevelString(s string) error {
	return p.lvl.UnmarshalText([]byte(s))
}

// SetEncoding sets output format, console or json.
func (p *Prm) SetEncoding(s string) error {
	switch s {
	case "", EncodingConsole:
		p.encoding = EncodingConsole
	case EncodingJSON:
		p.encoding = EncodingJSON
	default:
		return fmt.Errorf("unsupported log encoding %q", s)
	}
	return nil
}

// Reload reloads configuration of a connected instance of the Logger.
// Returns ErrLoggerNotConnected if no connection has been performed.
// Returns any reloading error.
func (p *Prm) Reload() error {
	if p.level == (zap.AtomicLevel{}) {
		return ErrLoggerNotConnected
	}

	p.level.SetLevel(p.lvl)

	return nil
}

// ErrLoggerNotConnected is returned by Prm.Reload before NewLogger was
// called with the Prm.
var ErrLoggerNotConnected = fmt.Errorf("logger is not connected")

// NewLogger constructs a new zap logger instance. Constructing with nil
// parameters is safe: default values will be used then. Passing non-nil
// parameters after a successful creation (non-error) allows runtime
// reconfiguration.
//
// Logger is built from production logging configuration with:
//   - parameterized level;
//   - console or json encoding;
//   - ISO8601 time encoding.
//
// Logger records a stack trace for all messages at or above fatal level.
func NewLogger(prm *Prm) (*zap.Logger, error) {
	if prm == nil {
		prm = new(Prm)
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(prm.lvl)
	c.Encoding = EncodingConsole
	if prm.encoding != "" {
		c.Encoding = prm.encoding
	}
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lZap, err := c.Build(
		zap.AddStacktrace(zap.NewAtomicLevelAt(zap.FatalLevel)),
	)
	if err != nil {
		return nil, err
	}

	prm.level = c.Level

	return lZap, nil
}
