// Command pushsim simulates a batch job pushing metrics through the gateway.
// It registers one metric of each type, randomizes their values, wraps an
// exposition snapshot in the push envelope, and POSTs it to the relay.
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	gatewayURL     = flag.String("gateway-url", "http://localhost:6000/push_metrics", "relay push endpoint")
	pushgatewayURL = flag.String("pushgateway-url", "http://localhost:9091", "target Pushgateway base URL")
	count          = flag.Int("count", 10, "number of pushes to send")
	interval       = flag.Duration("interval", 2*time.Second, "interval between pushes")
	userID         = flag.String("user", "example_user", "user label attached to request counters")
)

type pushEnvelope struct {
	TargetURL string            `json:"target_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Data      string            `json:"data"`
}

type simMetrics struct {
	registry        *prometheus.Registry
	requestCounter  *prometheus.CounterVec
	cpuUsage        prometheus.Gauge
	memoryUsage     *prometheus.GaugeVec
	requestDuration *prometheus.HistogramVec
	requestLatency  prometheus.Summary
}

func newSimMetrics() *simMetrics {
	m := &simMetrics{registry: prometheus.NewRegistry()}

	m.requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sample_requests_total",
		Help: "Total number of requests processed",
	}, []string{"userid", "method", "endpoint"})

	m.cpuUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sample_cpu_usage_percent",
		Help: "Current CPU usage in percent",
	})

	m.memoryUsage = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sample_memory_usage_bytes",
		Help: "Current memory usage in bytes",
	}, []string{"instance"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "sample_request_duration_seconds",
		Help: "Request duration in seconds",
	}, []string{"endpoint"})

	m.requestLatency = prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "sample_request_latency_seconds",
		Help: "Request latency in seconds",
	})

	m.registry.MustRegister(m.requestCounter, m.cpuUsage, m.memoryUsage, m.requestDuration, m.requestLatency)
	return m
}

// simulate updates every metric with plausible random values.
func (m *simMetrics) simulate(user string) {
	endpoint := gofakeit.RandomString([]string{"/api/query", "/api/ingest", "/api/status"})
	method := gofakeit.RandomString([]string{"GET", "POST", "PUT"})

	m.requestCounter.WithLabelValues(user, method, endpoint).Inc()
	m.cpuUsage.Set(rand.Float64() * 100)
	m.memoryUsage.WithLabelValues("app-server-1").Set(float64(gofakeit.Number(100_000_000, 500_000_000)))

	duration := rand.Float64() * 2
	m.requestDuration.WithLabelValues(endpoint).Observe(duration)
	m.requestLatency.Observe(duration)
}

// snapshot renders the current registry contents in text exposition format.
func (m *simMetrics) snapshot() ([]byte, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return nil, fmt.Errorf("encode %s: %w", family.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}

func main() {
	flag.Parse()
	gofakeit.Seed(time.Now().UnixNano())

	jobName := fmt.Sprintf("sample_go_batch_job%s", time.Now().Format("20060102150405"))
	targetURL := fmt.Sprintf("%s/metrics/job/%s", *pushgatewayURL, jobName)

	log.Printf("Starting push simulator:")
	log.Printf("  Gateway URL: %s", *gatewayURL)
	log.Printf("  Target URL: %s", targetURL)
	log.Printf("  Push count: %d", *count)
	log.Printf("  Interval: %v", *interval)

	metrics := newSimMetrics()
	client := &http.Client{Timeout: 10 * time.Second}

	successCount := 0
	failCount := 0

	for i := 0; i < *count; i++ {
		metrics.simulate(*userID)

		exposition, err := metrics.snapshot()
		if err != nil {
			log.Printf("Failed to render metrics: %v", err)
			failCount++
			continue
		}

		if err := push(client, *gatewayURL, targetURL, exposition); err != nil {
			log.Printf("Push %d failed: %v", i+1, err)
			failCount++
		} else {
			successCount++
			log.Printf("Push %d/%d sent (%d bytes)", i+1, *count, len(exposition))
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	log.Printf("Done: %d succeeded, %d failed", successCount, failCount)
}

func push(client *http.Client, gatewayURL, targetURL string, exposition []byte) error {
	env := pushEnvelope{
		TargetURL: targetURL,
		Method:    http.MethodPut,
		Headers:   map[string]string{"Content-Type": "text/plain"},
		Data:      base64.StdEncoding.EncodeToString(exposition),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	resp, err := client.Post(gatewayURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway answered %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}
	return nil
}
