package report

import (
	"sort"
	"time"

	"github.com/m-ullrich/XLT/pkg/requestdata"
)

// Collector accumulates classified requests. It is not safe for
// concurrent use; each worker owns one and the results are merged
// afterwards.
type Collector struct {
	requests map[string]*accumulator
	methods  map[string]int
	total    int
	dropped  int
}

// accumulator gathers raw per-bucket numbers until Snapshot turns them
// into a RequestReport.
type accumulator struct {
	count         int
	errors        int
	bytesSent     int64
	bytesReceived int64
	runTimes      []int64 // milliseconds, kept for percentiles
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		requests: make(map[string]*accumulator),
		methods:  make(map[string]int),
	}
}

// Record adds a request under its merged name.
func (c *Collector) Record(name string, req *requestdata.Request) {
	acc, ok := c.requests[name]
	if !ok {
		acc = &accumulator{}
		c.requests[name] = acc
	}

	acc.count++
	if req.Failed {
		acc.errors++
	}
	acc.bytesSent += req.BytesSent
	acc.bytesReceived += req.BytesReceived
	acc.runTimes = append(acc.runTimes, req.RunTime.Milliseconds())

	if req.Method != "" {
		c.methods[req.Method]++
	}
	c.total++
}

// Drop counts a request that could not be classified.
func (c *Collector) Drop() {
	c.dropped++
}

// Merge folds other into c. other must not be used afterwards.
func (c *Collector) Merge(other *Collector) {
	for name, acc := range other.requests {
		mine, ok := c.requests[name]
		if !ok {
			c.requests[name] = acc
			continue
		}
		mine.count += acc.count
		mine.errors += acc.errors
		mine.bytesSent += acc.bytesSent
		mine.bytesReceived += acc.bytesReceived
		mine.runTimes = append(mine.runTimes, acc.runTimes...)
	}

	for method, count := range other.methods {
		c.methods[method] += count
	}
	c.total += other.total
	c.dropped += other.dropped
}

// Snapshot produces the immutable report for everything recorded so
// far.
func (c *Collector) Snapshot(runID string, skippedLines int, elapsed time.Duration) *Report {
	rep := &Report{
		RunID:           runID,
		GeneratedAt:     time.Now().UTC(),
		ElapsedMillis:   elapsed.Milliseconds(),
		TotalRequests:   c.total,
		DroppedRequests: c.dropped,
		SkippedLines:    skippedLines,
		Requests:        make([]RequestReport, 0, len(c.requests)),
		RequestMethods:  make([]MethodReport, 0, len(c.methods)),
	}

	for name, acc := range c.requests {
		rep.Requests = append(rep.Requests, acc.report(name))
	}
	sort.Slice(rep.Requests, func(i, j int) bool {
		return rep.Requests[i].Name < rep.Requests[j].Name
	})

	for method, count := range c.methods {
		rep.RequestMethods = append(rep.RequestMethods, MethodReport{Method: method, Count: count})
	}
	sort.Slice(rep.RequestMethods, func(i, j int) bool {
		return rep.RequestMethods[i].Method < rep.RequestMethods[j].Method
	})

	return rep
}

func (a *accumulator) report(name string) RequestReport {
	sorted := make([]int64, len(a.runTimes))
	copy(sorted, a.runTimes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total int64
	for _, rt := range sorted {
		total += rt
	}

	r := RequestReport{
		Name:          name,
		Count:         a.count,
		Errors:        a.errors,
		BytesSent:     a.bytesSent,
		BytesReceived: a.bytesReceived,
	}
	if len(sorted) > 0 {
		r.MinMillis = sorted[0]
		r.MaxMillis = sorted[len(sorted)-1]
		r.MeanMillis = total / int64(len(sorted))
		r.P50Millis = percentile(sorted, 50)
		r.P95Millis = percentile(sorted, 95)
		r.P99Millis = percentile(sorted, 99)
	}
	return r
}

// percentile returns the nearest-rank percentile of an ascending
// sorted sample set.
func percentile(sorted []int64, p int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100 // ceil(p/100 * n)
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// Report is the aggregated result of a report run.
type Report struct {
	RunID           string          `json:"runId"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	ElapsedMillis   int64           `json:"elapsedMillis"`
	TotalRequests   int             `json:"totalRequests"`
	DroppedRequests int             `json:"droppedRequests"`
	SkippedLines    int             `json:"skippedLines"`
	Requests        []RequestReport `json:"requests"`
	RequestMethods  []MethodReport  `json:"requestMethods"`
}

// RequestReport aggregates all requests merged under one name.
type RequestReport struct {
	Name          string `json:"name"`
	Count         int    `json:"count"`
	Errors        int    `json:"errors"`
	MinMillis     int64  `json:"minMillis"`
	MaxMillis     int64  `json:"maxMillis"`
	MeanMillis    int64  `json:"meanMillis"`
	P50Millis     int64  `json:"p50Millis"`
	P95Millis     int64  `json:"p95Millis"`
	P99Millis     int64  `json:"p99Millis"`
	BytesSent     int64  `json:"bytesSent"`
	BytesReceived int64  `json:"bytesReceived"`
}

// MethodReport is the total number of requests using one HTTP request
// method.
type MethodReport struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
}
