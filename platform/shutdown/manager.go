package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Manager runs registered cleanup functions once the process is asked to stop.
// Functions run in reverse registration order, each under its own timeout.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger
	funcs   []shutdownFunc
	mu      sync.Mutex
}

type shutdownFunc struct {
	name string
	fn   func(context.Context) error
}

// New creates a Manager with a per-function timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		timeout: timeout,
		logger:  logger,
		funcs:   make([]shutdownFunc, 0),
	}
}

// Add registers fn under name.
func (m *Manager) Add(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, shutdownFunc{name: name, fn: fn})
}

// Wait blocks until SIGINT or SIGTERM and then runs the shutdown functions.
func (m *Manager) Wait() {
	m.WaitContext(context.Background())
}

// WaitContext is Wait that also returns when ctx is done.
func (m *Manager) WaitContext(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.logger.Info("received shutdown signal, starting graceful shutdown", zap.String("signal", sig.String()))
	case <-ctx.Done():
		m.logger.Info("shutdown requested, starting graceful shutdown")
	}

	m.run()
}

func (m *Manager) run() {
	m.mu.Lock()
	funcs := make([]shutdownFunc, len(m.funcs))
	copy(funcs, m.funcs)
	m.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		f := funcs[i]

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		start := time.Now()
		err := f.fn(ctx)
		cancel()

		if err != nil {
			m.logger.Error("shutdown function failed",
				zap.String("name", f.name),
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
			continue
		}
		m.logger.Info("shutdown function completed",
			zap.String("name", f.name),
			zap.Duration("duration", time.Since(start)))
	}

	m.logger.Info("graceful shutdown completed")
}

// ShutdownHTTPServer adapts an http.Server.
func ShutdownHTTPServer(srv interface {
	Shutdown(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}
}

// ClosePool adapts a pool whose Close has no result (pgxpool.Pool).
func ClosePool(pool interface {
	Close()
}) func(context.Context) error {
	return func(ctx context.Context) error {
		pool.Close()
		return nil
	}
}

// Close adapts an io.Closer-like resource (redis client, kafka writer, local queue).
func Close(c interface {
	Close() error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return c.Close()
	}
}
