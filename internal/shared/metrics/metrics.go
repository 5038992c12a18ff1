package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	tenantResolutions  = newCounterVec("kind")
	shareViewsTotal    atomic.Uint64
	shareRejections    = newCounterVec("reason")
	deploysTotal       atomic.Uint64
	undeploysTotal     atomic.Uint64
	subdomainConflicts atomic.Uint64
	entitlementDenials = newCounterVec("capability")
	sharesSwept        atomic.Uint64

	tenantResolveDuration = newHistogram([]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000})
)

// IncTenantResolution counts one host resolution by outcome kind.
func IncTenantResolution(kind string) {
	tenantResolutions.Inc(kind)
}

// ObserveTenantResolveMs records how long a host lookup took.
func ObserveTenantResolveMs(value float64) {
	if value < 0 {
		value = 0
	}
	tenantResolveDuration.Observe(value)
}

func IncShareView() {
	shareViewsTotal.Add(1)
}

// IncShareRejected counts a share resolution that did not render (expired, revoked, not_found).
func IncShareRejected(reason string) {
	shareRejections.Inc(reason)
}

func IncDeploy() {
	deploysTotal.Add(1)
}

func IncUndeploy() {
	undeploysTotal.Add(1)
}

func IncSubdomainConflict() {
	subdomainConflicts.Add(1)
}

func IncEntitlementDenied(capability string) {
	entitlementDenials.Inc(capability)
}

func AddSharesSwept(n int) {
	if n > 0 {
		sharesSwept.Add(uint64(n))
	}
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
	writeCounterVec(&buf, "tenant_resolutions_total", "Host resolutions by outcome", tenantResolutions)
	writeHistogram(&buf, "tenant_resolve_duration_ms", "Host resolution duration in milliseconds", tenantResolveDuration.Snapshot())
	writeCounter(&buf, "share_views_total", "Share link views served", shareViewsTotal.Load())
	writeCounterVec(&buf, "share_rejections_total", "Share link resolutions refused by reason", shareRejections)
	writeCounter(&buf, "shares_swept_total", "Expired share snapshots removed by the sweeper", sharesSwept.Load())
	writeCounter(&buf, "deploys_total", "Successful subdomain deployments", deploysTotal.Load())
	writeCounter(&buf, "undeploys_total", "Subdomain undeployments", undeploysTotal.Load())
	writeCounter(&buf, "subdomain_conflicts_total", "Subdomain reservations lost to another document", subdomainConflicts.Load())
	writeCounterVec(&buf, "entitlement_denials_total", "Actions refused by plan entitlements", entitlementDenials)
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	label  string
	values map[string]uint64
}

func newCounterVec(label string) *counterVec {
	return &counterVec{label: label, values: make(map[string]uint64)}
}

func (v *counterVec) Inc(value string) {
	v.mu.Lock()
	v.values[value]++
	v.mu.Unlock()
}

func (v *counterVec) Get(value string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.values[value]
}

func (v *counterVec) snapshot() ([]string, map[string]uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	keys := make([]string, 0, len(v.values))
	out := make(map[string]uint64, len(v.values))
	for k, n := range v.values {
		keys = append(keys, k)
		out[k] = n
	}
	sort.Strings(keys)
	return keys, out
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

func writeCounterVec(buf *bytes.Buffer, name, help string, v *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys, values := v.snapshot()
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, v.label, k, values[k])
	}
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
