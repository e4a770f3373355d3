package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsRegisteredTotal atomic.Uint64
	documentsDedupedTotal    atomic.Uint64
	documentsCorruptedTotal  atomic.Uint64
	queueTransitionsTotal    atomic.Uint64
	batchItemsFailedTotal    atomic.Uint64

	portalUploadDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncDocumentsRegistered increments the registered-documents counter.
func IncDocumentsRegistered() {
	documentsRegisteredTotal.Add(1)
}

// IncDocumentsDeduped increments the dedup-hit counter.
func IncDocumentsDeduped() {
	documentsDedupedTotal.Add(1)
}

// IncDocumentsCorrupted increments the corrupted-documents counter.
func IncDocumentsCorrupted() {
	documentsCorruptedTotal.Add(1)
}

// IncQueueTransitions increments the queue status transition counter.
func IncQueueTransitions() {
	queueTransitionsTotal.Add(1)
}

// IncBatchItemsFailed increments the failed batch item counter.
func IncBatchItemsFailed() {
	batchItemsFailedTotal.Add(1)
}

// ObservePortalUploadMs records a portal upload duration in milliseconds.
func ObservePortalUploadMs(value float64) {
	if value < 0 {
		value = 0
	}
	portalUploadDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "documents_registered_total", "Total documents registered", documentsRegisteredTotal.Load())
	writeCounter(&buf, "documents_deduped_total", "Total register calls resolved by dedup", documentsDedupedTotal.Load())
	writeCounter(&buf, "documents_corrupted_total", "Total documents marked corrupted", documentsCorruptedTotal.Load())
	writeCounter(&buf, "queue_transitions_total", "Total queue status transitions", queueTransitionsTotal.Load())
	writeCounter(&buf, "batch_items_failed_total", "Total batch items that ended in error", batchItemsFailedTotal.Load())
	writeHistogram(&buf, "portal_upload_duration_ms", "Portal upload duration in milliseconds", portalUploadDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
