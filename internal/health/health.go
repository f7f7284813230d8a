package health

import (
	"context"
	"sync"
	"time"
)

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

type HealthCheck interface {
	Name() string
	Check(ctx context.Context) HealthResult
}

type HealthResult struct {
	Name     string        `json:"name"`
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    error         `json:"-"`
}

// Up reports whether the dependency is usable, slow or not.
func (r HealthResult) Up() bool {
	return r.Status != StatusUnhealthy
}

type HealthChecker struct {
	checks []HealthCheck
	mu     sync.RWMutex
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make([]HealthCheck, 0)}
}

func (hc *HealthChecker) Register(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, check)
}

// Check runs every registered check concurrently.
func (hc *HealthChecker) Check(ctx context.Context) map[string]HealthResult {
	hc.mu.RLock()
	checks := make([]HealthCheck, len(hc.checks))
	copy(checks, hc.checks)
	hc.mu.RUnlock()

	results := make(map[string]HealthResult, len(checks))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, c := range checks {
		wg.Add(1)
		go func(ch HealthCheck) {
			defer wg.Done()
			start := time.Now()
			res := ch.Check(ctx)
			res.Name = ch.Name()
			res.Duration = time.Since(start)
			mu.Lock()
			results[ch.Name()] = res
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

func (hc *HealthChecker) OverallStatus(results map[string]HealthResult) HealthStatus {
	hasDegraded := false
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// ArticleCounter is satisfied by the knowledge base service.
type ArticleCounter interface {
	Count(ctx context.Context) (int, error)
}

// KnowledgeBaseHealthCheck fails when no articles are loaded.
type KnowledgeBaseHealthCheck struct{ KB ArticleCounter }

func (k *KnowledgeBaseHealthCheck) Name() string { return "knowledge_base" }
func (k *KnowledgeBaseHealthCheck) Check(ctx context.Context) HealthResult {
	n, err := k.KB.Count(ctx)
	switch {
	case err != nil:
		return HealthResult{Status: StatusUnhealthy, Message: "Knowledge base unavailable", Error: err}
	case n == 0:
		return HealthResult{Status: StatusUnhealthy, Message: "No articles loaded"}
	default:
		return HealthResult{Status: StatusHealthy, Message: "Articles loaded"}
	}
}

// Pinger is satisfied by the Kafka producer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KafkaHealthCheck reports the analytics stream. Analytics are optional, so
// an unreachable broker degrades the service instead of failing it.
// A zero Timeout uses defaultPingTimeout.
type KafkaHealthCheck struct {
	Producer Pinger
	Timeout  time.Duration
}

const defaultPingTimeout = 2 * time.Second

func (k *KafkaHealthCheck) Name() string { return "analytics" }
func (k *KafkaHealthCheck) Check(ctx context.Context) HealthResult {
	timeout := k.Timeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := k.Producer.Ping(ctx)
	duration := time.Since(start)
	switch {
	case err != nil:
		return HealthResult{Status: StatusDegraded, Message: "Kafka unreachable", Error: err}
	case duration > 500*time.Millisecond:
		return HealthResult{Status: StatusDegraded, Message: "Kafka responding slowly"}
	default:
		return HealthResult{Status: StatusHealthy, Message: "Kafka connection healthy"}
	}
}
