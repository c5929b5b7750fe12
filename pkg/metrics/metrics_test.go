package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMailMetricsIncrement(t *testing.T) {
	host := "test-mail"

	before := testutil.ToFloat64(MessagesSent.WithLabelValues(host))
	MessagesSent.WithLabelValues(host).Inc()
	if v := testutil.ToFloat64(MessagesSent.WithLabelValues(host)); v != before+1 {
		t.Fatalf("expected MessagesSent %v, got %v", before+1, v)
	}

	before = testutil.ToFloat64(MessagesDeferred.WithLabelValues(host))
	MessagesDeferred.WithLabelValues(host).Add(2)
	if v := testutil.ToFloat64(MessagesDeferred.WithLabelValues(host)); v != before+2 {
		t.Fatalf("expected MessagesDeferred %v, got %v", before+2, v)
	}
}

func TestQueueMessagesGauge(t *testing.T) {
	QueueMessages.WithLabelValues("queued").Set(4)
	QueueMessages.WithLabelValues("deferred").Set(1)
	if v := testutil.ToFloat64(QueueMessages.WithLabelValues("queued")); v != 4 {
		t.Fatalf("expected queued gauge 4, got %v", v)
	}
	if v := testutil.ToFloat64(QueueMessages.WithLabelValues("deferred")); v != 1 {
		t.Fatalf("expected deferred gauge 1, got %v", v)
	}
}

func TestWriteTextfile(t *testing.T) {
	SendPaused.Inc()
	path := filepath.Join(t.TempDir(), "mailqueue.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "mailqueue_send_paused_total") {
		t.Fatalf("textfile lacks mailqueue_send_paused_total:\n%s", data)
	}
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	if err := WriteTextfile(""); err != nil {
		t.Fatalf("expected no-op for empty path, got %v", err)
	}
}

func TestWriteTextfileBadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "mailqueue.prom")
	if err := WriteTextfile(path); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
