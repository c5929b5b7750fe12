package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailqueue_messages_sent_total",
		Help: "Total number of queued messages handed to the SMTP relay successfully",
	}, []string{"host"})
	MessagesDeferred = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailqueue_messages_deferred_total",
		Help: "Total number of queued messages deferred after a failed send",
	}, []string{"host"})
	SendPaused = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mailqueue_send_paused_total",
		Help: "Total number of send-mail runs skipped because sending is paused",
	})
	// QueueMessages is refreshed by count runs.
	QueueMessages = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mailqueue_queue_messages",
		Help: "Number of messages in the queue by state (queued, deferred)",
	}, []string{"state"})
)

func init() {
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(MessagesDeferred)
	prometheus.MustRegister(SendPaused)
	prometheus.MustRegister(QueueMessages)
}

// WriteTextfile dumps the default gatherer to path in the text exposition
// format, for the node exporter textfile collector. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
