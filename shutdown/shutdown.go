package shutdown

import (
	"context"
	"time"

	"github.com/vinayprograms/taskboard/errors"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown is in progress on another goroutine.
	ErrAlreadyShutdown = errors.Conflict("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New(errors.ErrCodeTimeout, "shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed during shutdown.
	ErrHandlerFailed = errors.Internal("one or more handlers failed")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.InvalidInput("invalid configuration")
)

// Handler is implemented by components that need graceful shutdown.
type Handler interface {
	// OnShutdown releases the component's resources. The context is
	// cancelled when the shutdown timeout is reached.
	OnShutdown(ctx context.Context) error
}

// HandlerFunc is a convenience type for simple shutdown functions.
type HandlerFunc func(ctx context.Context) error

// OnShutdown implements Handler.
func (f HandlerFunc) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// HandlerResult contains the result of a single handler's shutdown.
type HandlerResult struct {
	Name     string
	Phase    int
	Duration time.Duration
	Err      error
}

// Result contains the complete shutdown result.
type Result struct {
	// TotalDuration of the entire shutdown process.
	TotalDuration time.Duration

	// Results for each handler that ran, in phase order.
	Results []HandlerResult

	// Err is the overall error (nil if all handlers succeeded).
	Err error
}

// Failed returns true if any handler failed.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// FailedHandlers returns the names of handlers that failed.
func (r *Result) FailedHandlers() []string {
	var failed []string
	for _, hr := range r.Results {
		if hr.Err != nil {
			failed = append(failed, hr.Name)
		}
	}
	return failed
}

// Config configures the shutdown coordinator.
type Config struct {
	// DefaultTimeout is used when ShutdownWithTimeout is called with zero.
	// Default: 10 seconds
	DefaultTimeout time.Duration

	// DefaultPhase is assigned to handlers registered without a phase.
	// Default: 100
	DefaultPhase int

	// ContinueOnError determines whether later phases still run after a
	// handler fails.
	ContinueOnError bool

	// OnProgress is called when each handler completes.
	OnProgress func(result HandlerResult)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DefaultTimeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:  10 * time.Second,
		DefaultPhase:    100,
		ContinueOnError: true,
	}
}

type registration struct {
	name    string
	handler Handler
	phase   int
}
