package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/vinayprograms/taskboard/errors"
)

// Coordinator runs registered handlers in phase order.
type Coordinator struct {
	config Config

	mu            sync.Mutex
	handlers      []registration
	shutdownOnce  sync.Once
	shutdownErr   error
	done          chan struct{}
	result        *Result
	signalChan    chan os.Signal
	signalOnce    sync.Once
	shutdownStart time.Time
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(config Config) *Coordinator {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultConfig().DefaultTimeout
	}
	if config.DefaultPhase == 0 {
		config.DefaultPhase = DefaultConfig().DefaultPhase
	}

	return &Coordinator{
		config:     config,
		done:       make(chan struct{}),
		signalChan: make(chan os.Signal, 1),
	}
}

// Register adds a handler in the default phase.
func (c *Coordinator) Register(name string, handler Handler) {
	c.RegisterWithPhase(name, handler, c.config.DefaultPhase)
}

// RegisterWithPhase adds a handler with a specific phase.
// Lower phase numbers are shut down first.
func (c *Coordinator) RegisterWithPhase(name string, handler Handler, phase int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers = append(c.handlers, registration{
		name:    name,
		handler: handler,
		phase:   phase,
	})
}

// RegisterFuncWithPhase registers a function as a handler.
func (c *Coordinator) RegisterFuncWithPhase(name string, fn func(ctx context.Context) error, phase int) {
	c.RegisterWithPhase(name, HandlerFunc(fn), phase)
}

// Shutdown runs every handler once. A second call made while the first is
// still running returns ErrAlreadyShutdown; after completion it returns the
// first call's error.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.shutdownOnce.Do(func() {
		c.shutdownStart = time.Now()
		c.shutdownErr = c.doShutdown(ctx)
		close(c.done)
	})

	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return ErrAlreadyShutdown
	}
}

// ShutdownWithTimeout initiates shutdown with a timeout.
func (c *Coordinator) ShutdownWithTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// HandleSignals shuts down on SIGTERM or SIGINT. Safe to call more than once.
func (c *Coordinator) HandleSignals() {
	c.signalOnce.Do(func() {
		signal.Notify(c.signalChan, syscall.SIGTERM, syscall.SIGINT)

		go func() {
			select {
			case <-c.signalChan:
				_ = c.ShutdownWithTimeout(c.config.DefaultTimeout)
			case <-c.done:
			}
			signal.Stop(c.signalChan)
		}()
	})
}

// Trigger simulates a termination signal.
func (c *Coordinator) Trigger() {
	select {
	case c.signalChan <- syscall.SIGTERM:
	default:
	}
}

// Done returns a channel that is closed when shutdown is complete.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns any error that occurred during shutdown.
func (c *Coordinator) Err() error {
	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return nil
	}
}

// Result returns the detailed shutdown result.
// Only valid after Done() is closed.
func (c *Coordinator) Result() *Result {
	select {
	case <-c.done:
		return c.result
	default:
		return nil
	}
}

func (c *Coordinator) doShutdown(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	// Stable so same-phase handlers keep registration order in results
	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].phase < handlers[j].phase
	})

	result := &Result{
		Results: make([]HandlerResult, 0, len(handlers)),
	}
	finish := func(err error) error {
		result.Err = err
		result.TotalDuration = time.Since(c.shutdownStart)
		c.result = result
		return err
	}

	var failures []error
	for _, group := range groupByPhase(handlers) {
		select {
		case <-ctx.Done():
			return finish(fmt.Errorf("%w before phase %d: %w", ErrTimeout, group[0].phase, ctx.Err()))
		default:
		}

		phaseResults := c.executePhase(ctx, group)
		result.Results = append(result.Results, phaseResults...)

		for _, hr := range phaseResults {
			if hr.Err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", hr.Name, hr.Err))
			}
		}
		if len(failures) > 0 && !c.config.ContinueOnError {
			break
		}
	}

	if len(failures) > 0 {
		return finish(fmt.Errorf("%w: %w", ErrHandlerFailed, errors.Join(failures...)))
	}
	return finish(nil)
}

// executePhase runs all handlers in a phase concurrently.
func (c *Coordinator) executePhase(ctx context.Context, handlers []registration) []HandlerResult {
	results := make([]HandlerResult, len(handlers))
	var wg sync.WaitGroup

	for i, reg := range handlers {
		wg.Add(1)
		go func(idx int, r registration) {
			defer wg.Done()

			start := time.Now()
			err := r.handler.OnShutdown(ctx)

			hr := HandlerResult{
				Name:     r.name,
				Phase:    r.phase,
				Duration: time.Since(start),
				Err:      err,
			}
			results[idx] = hr

			if c.config.OnProgress != nil {
				c.config.OnProgress(hr)
			}
		}(i, reg)
	}

	wg.Wait()
	return results
}

// groupByPhase groups sorted handlers by their phase number.
func groupByPhase(handlers []registration) [][]registration {
	var groups [][]registration
	for i, h := range handlers {
		if i == 0 || h.phase != handlers[i-1].phase {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], h)
	}
	return groups
}
