package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

const namespace = "freelancefi"

// Metrics собирает счётчики команд над сделками и переводов.
// У каждого экземпляра свой реестр, поэтому тесты не конфликтуют друг с другом.
type Metrics struct {
	registry        *prometheus.Registry
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	transferred     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gig_commands_total",
			Help:      "Команды над сделками по результату.",
		}, []string{"command", "result"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gig_command_duration_seconds",
			Help:      "Длительность команд над сделками.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		transferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transferred_units_total",
			Help:      "Сумма переводов в минимальных единицах по виду.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.commands,
		m.commandDuration,
		m.transferred,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCommand учитывает команду; result - "ok" или код ошибки в нижнем регистре.
func (m *Metrics) ObserveCommand(command string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, Result(err)).Inc()
	m.commandDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

func (m *Metrics) AddTransferred(kind string, units int64) {
	if m == nil || units <= 0 {
		return
	}
	m.transferred.WithLabelValues(kind).Add(float64(units))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry нужен тестам для чтения значений.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperror.IsNotFound(err):
		return "not_found"
	case apperror.IsUnauthorizedActor(err):
		return "unauthorized_actor"
	case apperror.IsInvalidState(err):
		return "invalid_state"
	case apperror.IsInvalidInput(err):
		return "invalid_input"
	case apperror.IsTransient(err):
		return "transient_write_failure"
	default:
		return "error"
	}
}
