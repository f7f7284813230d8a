package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCounter struct {
	n   int
	err error
}

func (s staticCounter) Count(context.Context) (int, error) { return s.n, s.err }

type staticPinger struct{ err error }

func (s staticPinger) Ping(context.Context) error { return s.err }

// hangingPinger blocks until its context is done, like a dial to a broker
// that drops packets.
type hangingPinger struct{}

func (hangingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestKafkaCheckTimesOut(t *testing.T) {
	check := &KafkaHealthCheck{Producer: hangingPinger{}, Timeout: 20 * time.Millisecond}

	start := time.Now()
	res := check.Check(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusDegraded, res.Status)
	assert.ErrorIs(t, res.Error, context.DeadlineExceeded)
}

func TestKafkaCheckDefaultTimeout(t *testing.T) {
	var deadline time.Time
	check := &KafkaHealthCheck{Producer: pingerFunc(func(ctx context.Context) error {
		var ok bool
		deadline, ok = ctx.Deadline()
		require.True(t, ok)
		return nil
	})}

	start := time.Now()
	res := check.Check(context.Background())

	assert.Equal(t, StatusHealthy, res.Status)
	assert.WithinDuration(t, start.Add(defaultPingTimeout), deadline, time.Second)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckCollectsResults(t *testing.T) {
	hc := NewHealthChecker()
	hc.Register(&KnowledgeBaseHealthCheck{KB: staticCounter{n: 3}})
	hc.Register(&KafkaHealthCheck{Producer: staticPinger{}})

	results := hc.Check(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, StatusHealthy, results["knowledge_base"].Status)
	assert.Equal(t, "knowledge_base", results["knowledge_base"].Name)
	assert.Equal(t, StatusHealthy, results["analytics"].Status)
	assert.Equal(t, StatusHealthy, hc.OverallStatus(results))
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name    string
		counter staticCounter
		pinger  staticPinger
		want    HealthStatus
	}{
		{"all healthy", staticCounter{n: 1}, staticPinger{}, StatusHealthy},
		{"kafka down degrades", staticCounter{n: 1}, staticPinger{err: errors.New("refused")}, StatusDegraded},
		{"no articles", staticCounter{n: 0}, staticPinger{}, StatusUnhealthy},
		{"store error", staticCounter{err: errors.New("boom")}, staticPinger{}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			hc.Register(&KnowledgeBaseHealthCheck{KB: tt.counter})
			hc.Register(&KafkaHealthCheck{Producer: tt.pinger})
			assert.Equal(t, tt.want, hc.OverallStatus(hc.Check(context.Background())))
		})
	}
}

func TestUp(t *testing.T) {
	assert.True(t, HealthResult{Status: StatusHealthy}.Up())
	assert.True(t, HealthResult{Status: StatusDegraded}.Up())
	assert.False(t, HealthResult{Status: StatusUnhealthy}.Up())
}
