package health

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	checker Checker
	// failure reports degraded instead of unhealthy
	optional bool
}

// Aggregator runs every registered check concurrently.
// A failing required check makes the process unhealthy; a failing
// optional one only degrades it.
type Aggregator struct {
	entries  []entry
	timeout  time.Duration
	mu       sync.RWMutex
	metadata map[string]any
}

// NewAggregator creates a health check aggregator
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{
		timeout:  timeout,
		metadata: make(map[string]any),
	}
}

// Register adds a required check
func (a *Aggregator) Register(checker Checker) {
	a.add(entry{checker: checker})
}

// RegisterOptional adds a check whose failure only degrades the process
func (a *Aggregator) RegisterOptional(checker Checker) {
	a.add(entry{checker: checker, optional: true})
}

func (a *Aggregator) add(e entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

// SetMetadata Set metadata
func (a *Aggregator) SetMetadata(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metadata[key] = value
}

// Check executes all health checks
func (a *Aggregator) Check(ctx context.Context) *Response {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	entries := append([]entry(nil), a.entries...)
	metadata := make(map[string]any, len(a.metadata))
	for k, v := range a.metadata {
		metadata[k] = v
	}
	a.mu.RUnlock()

	results := make(chan CheckResult, len(entries))
	for _, e := range entries {
		go func(e entry) {
			results <- checkOne(checkCtx, e)
		}(e)
	}

	checks := make(map[string]CheckResult, len(entries))
	for i := 0; i < len(entries); i++ {
		result := <-results
		checks[result.Name] = result
	}

	return &Response{
		Status:    overallStatus(checks),
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Checks:    checks,
		Metadata:  metadata,
	}
}

func checkOne(ctx context.Context, e entry) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      e.checker.Name(),
		Timestamp: start,
	}

	err := e.checker.Check(ctx)
	result.Duration = time.Since(start)

	switch {
	case err == nil:
		result.Status = StatusHealthy
		result.Message = "OK"
	case e.optional:
		result.Status = StatusDegraded
		result.Error = err.Error()
		result.Message = "Running degraded"
	default:
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Health check failed"
	}

	return result
}

func overallStatus(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range checks {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// CheckerFunc adapts a function to Checker
type CheckerFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

// Name returns the check name
func (f CheckerFunc) Name() string { return f.CheckName }

// Check runs the function
func (f CheckerFunc) Check(ctx context.Context) error { return f.Fn(ctx) }
