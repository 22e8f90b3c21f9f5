// Package metrics exports ledger activity as Prometheus counters.
package metrics

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/quorum/internal/ir"
)

// Metric names.
const (
	EventsTotal            = "quorum_events_total"
	ExecutionFailuresTotal = "quorum_execution_failures_total"
)

// Sink is a ledger event sink that counts events by kind and rejected
// actions. It implements ledger.Sink and ledger.FailureObserver.
type Sink struct {
	events   *prometheus.CounterVec
	failures prometheus.Counter
}

// NewSink creates the counters and registers them on reg.
func NewSink(reg prometheus.Registerer) (*Sink, error) {
	s := &Sink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: EventsTotal,
			Help: "Ledger events emitted, by kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: ExecutionFailuresTotal,
			Help: "Executed proposals whose action the executor rejected.",
		}),
	}
	for _, c := range []prometheus.Collector{s.events, s.failures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	// Pre-create every kind so a scrape shows zeros instead of gaps.
	for _, k := range ir.EventKinds {
		s.events.WithLabelValues(string(k))
	}
	return s, nil
}

// Emit counts ev.
func (s *Sink) Emit(ev ir.Event) {
	s.events.WithLabelValues(string(ev.Kind)).Inc()
}

// ExecutionFailed counts one rejected action.
func (s *Sink) ExecutionFailed(ir.Owner, uint64, error) {
	s.failures.Inc()
}

// AddExecutionFailures counts n rejected actions at once. Used when
// rebuilding counters from a stored log.
func (s *Sink) AddExecutionFailures(n int) {
	if n > 0 {
		s.failures.Add(float64(n))
	}
}

// Sample is one gathered counter value.
type Sample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// Gather collects every counter from g as flat samples, sorted by name and
// then by label values.
func Gather(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			s := Sample{Name: mf.GetName(), Value: m.GetCounter().GetValue()}
			if len(m.GetLabel()) > 0 {
				s.Labels = make(map[string]string, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					s.Labels[lp.GetName()] = lp.GetValue()
				}
			}
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return labelKey(out[i].Labels) < labelKey(out[j].Labels)
	})
	return out, nil
}

func labelKey(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var key string
	for _, k := range keys {
		key += k + "=" + labels[k] + ","
	}
	return key
}
