package monitoring

import (
	"time"

	"github.com/nnoitra/terminal/internal/infrastructure/resilience"
)

// ObservePublish implements bus.Observer.
func (m *Metrics) ObservePublish(topic string, _ int) {
	m.BusPublishes.WithLabelValues(topic).Inc()
}

// ObserveCall implements bus.Observer.
func (m *Metrics) ObserveCall(topic, outcome string, elapsed time.Duration) {
	m.BusCalls.WithLabelValues(topic, outcome).Inc()
	m.BusCallDuration.WithLabelValues(topic).Observe(elapsed.Seconds())
}

// ObservePanic implements bus.Observer.
func (m *Metrics) ObservePanic(topic string) {
	m.BusPanics.WithLabelValues(topic).Inc()
}

// ObserveCommand implements command.Observer.
func (m *Metrics) ObserveCommand(name, outcome string, elapsed time.Duration) {
	m.Commands.WithLabelValues(name, outcome).Inc()
	m.CommandDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	m.mu.Lock()
	m.snapshot.TotalCommands++
	m.mu.Unlock()
}

// ObserveAutocomplete implements autocomplete.Observer.
func (m *Metrics) ObserveAutocomplete(options int, completed bool) {
	result := "unchanged"
	if completed {
		result = "completed"
	}
	m.Autocompletes.WithLabelValues(result).Inc()
	m.AutocompleteOptions.Observe(float64(options))
}

// ObserveStorage implements storage.Observer.
func (m *Metrics) ObserveStorage(backend, api string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StorageOps.WithLabelValues(backend, api, status).Inc()
	m.StorageDuration.WithLabelValues(backend, api).Observe(elapsed.Seconds())
}

// ObserveBreaker records a circuit breaker transition.
func (m *Metrics) ObserveBreaker(name string, to resilience.State) {
	m.BreakerState.WithLabelValues(name).Set(float64(to))
}
