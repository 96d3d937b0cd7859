package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder publishes reply outcomes to Prometheus. A nil Recorder is a no-op.
type Recorder struct {
	replies *prometheus.CounterVec
	scores  prometheus.Histogram
	tokens  *prometheus.CounterVec
}

// NewRegistry returns a registry preloaded with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewRecorder registers the support metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_replies_total",
			Help: "Replies served, by answer source and language.",
		}, []string{"source", "language"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "support_match_score",
			Help:    "Best keyword score per incoming message.",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 12},
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_llm_tokens_total",
			Help: "Tokens consumed by the generative fallback.",
		}, []string{"kind"}),
	}
	reg.MustRegister(r.replies, r.scores, r.tokens)
	return r
}

// ObserveReply counts one reply.
func (r *Recorder) ObserveReply(source, language string) {
	if r == nil {
		return
	}
	r.replies.WithLabelValues(source, language).Inc()
}

// ObserveScore records the best match score for a message.
func (r *Recorder) ObserveScore(score int) {
	if r == nil {
		return
	}
	r.scores.Observe(float64(score))
}

// ObserveUsage adds generative token usage.
func (r *Recorder) ObserveUsage(u TokenUsage) {
	if r == nil || u.IsZero() {
		return
	}
	r.tokens.WithLabelValues("prompt").Add(float64(u.PromptTokens))
	r.tokens.WithLabelValues("completion").Add(float64(u.CompletionTokens))
}
