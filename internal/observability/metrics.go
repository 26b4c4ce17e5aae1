package observability

import (
	"dex-quiz-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements the fetch and quiz observers with Prometheus collectors.
type Metrics struct {
	fetchAttempts     *prometheus.CounterVec
	placeholders      prometheus.Counter
	guesses           *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	liveSessions      prometheus.Gauge
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_fetch_attempts_total",
			Help: "Catalog fetch attempts by outcome.",
		}, []string{"outcome"}),
		placeholders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_placeholders_total",
			Help: "Records replaced by a placeholder after exhausting retries.",
		}),
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_guesses_total",
			Help: "Judged guesses by verdict.",
		}, []string{"verdict"}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_sessions_completed_total",
			Help: "Sessions that guessed every record, by region.",
		}, []string{"region"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_sessions_live",
			Help: "Sessions currently open.",
		}),
	}

	reg.MustRegister(
		m.fetchAttempts,
		m.placeholders,
		m.guesses,
		m.sessionsCompleted,
		m.liveSessions,
	)
	return m
}

func (m *Metrics) FetchAttempt(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.fetchAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PlaceholderUsed() {
	m.placeholders.Inc()
}

func (m *Metrics) GuessJudged(v domain.Verdict) {
	m.guesses.WithLabelValues(string(v)).Inc()
}

func (m *Metrics) SessionCompleted(region string) {
	m.sessionsCompleted.WithLabelValues(region).Inc()
}

func (m *Metrics) SessionOpened() {
	m.liveSessions.Inc()
}

func (m *Metrics) SessionEnded() {
	m.liveSessions.Dec()
}
