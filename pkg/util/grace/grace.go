package grace

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// NewGracefulContext returns context cancelled by SIGINT, SIGTERM or SIGHUP.
// The received signal is logged if l is not nil. Second signal is not
// intercepted and terminates the process as usual.
func NewGracefulContext(l *zap.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		sig := <-ch
		signal.Stop(ch)

		if l != nil {
			l.Info("received signal, stopping", zap.Stringer("signal", sig))
		}

		cancel()
	}()

	return ctx
}
