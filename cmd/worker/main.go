// Package main implements the Ballast worker service, a backend that executes
// units of work dispatched by the balancer.
//
// The worker is the simplest process in the system, responsible for:
//   - Executing invocations routed to it
//   - Registering with the balancer on startup
//   - Deregistering on graceful shutdown
//   - Responding to health probes
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                Worker                   │
//	├─────────────────────────────────────────┤
//	│  HTTP API:                              │
//	│    /health       - Health probe         │
//	│    /invoke       - Execute work         │
//	│    /info         - Worker information   │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    Worker        - Runtime state        │
//	│    Registration  - Balancer link        │
//	└─────────────────────────────────────────┘
//
// Configuration:
//   - BALANCER_ADDR: Balancer URL (required)
//   - WORKER_ID: Unique worker identifier (default: generated)
//   - WORKER_LISTEN: Listen address (default: ":8081")
//   - WORKER_ADDR: Public address for the balancer (default: "http://127.0.0.1:8081")
//   - WORKER_CAPACITY: Concurrent units this worker accepts (default: "10")
//   - WORKER_WEIGHT: Relative share under weighted routing (default: "1")
//   - WORKER_STANDBY: Skip self-registration; wait for the auto-scaler to
//     activate this worker (default: "false")
//   - WORK_DELAY: Simulated duration of one invocation (default: "0s")
//
// Example usage:
//
//	# Start a worker that registers itself
//	WORKER_ID=worker-1 \
//	WORKER_LISTEN=:9001 \
//	WORKER_ADDR=http://localhost:9001 \
//	BALANCER_ADDR=http://localhost:8080 \
//	./worker
//
//	# Invoke it directly (normally the dispatch caller does this)
//	curl -X POST localhost:9001/invoke -d '{"task":"resize"}'
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/ballast/internal/cluster"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

// version is reported in health probe responses.
const version = "0.1.0"

// Worker tracks the runtime state the HTTP handlers report: identity and the
// count of invocations executed since start. Counters are atomics, so
// handlers never lock.
type Worker struct {
	// ID uniquely identifies this worker in the pool.
	ID string

	// started is the process start time, reported as uptime.
	started time.Time

	// processed counts completed invocations.
	processed atomic.Int64

	// delay is the simulated duration of one invocation.
	delay time.Duration
}

// NewWorker creates a worker with a zeroed invocation counter.
func NewWorker(id string, delay time.Duration) *Worker {
	return &Worker{
		ID:      id,
		started: time.Now(),
		delay:   delay,
	}
}

// main runs the worker service: it serves the work endpoints, registers with
// the balancer unless standing by, and deregisters on shutdown.
//
// Exit codes:
//   - 0: Normal shutdown via signal
//   - 1: Missing required configuration
//   - 1: Failed to register with the balancer
//   - 1: Failed to start the HTTP server
func main() {
	balancerAddr := mustGetenv("BALANCER_ADDR")
	workerID := getenv("WORKER_ID", "worker-"+uuid.NewString()[:8])
	listen := getenv("WORKER_LISTEN", ":8081")
	public := getenv("WORKER_ADDR", "http://127.0.0.1:8081")
	capacity := int64(getenvInt("WORKER_CAPACITY", 10))
	weight := getenvInt("WORKER_WEIGHT", 1)
	standby := getenvBool("WORKER_STANDBY", false)
	delay := getenvDuration("WORK_DELAY", 0)

	worker := NewWorker(workerID, delay)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", worker.handleHealth)
	mux.HandleFunc("/invoke", worker.handleInvoke)
	mux.HandleFunc("/info", worker.handleInfo)

	s := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("worker[%s] listening on %s (public %s)", workerID, listen, public)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	info := cluster.WorkerInfo{
		ID:       workerID,
		Addr:     public,
		Capacity: capacity,
		Weight:   weight,
	}

	ctx := context.Background()
	if standby {
		log.Printf("worker[%s] standing by; the balancer's scaler activates it", workerID)
	} else {
		register(ctx, balancerAddr, info)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if !standby {
		deregister(ctx, balancerAddr, workerID)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("worker stopped")
}

// register announces the worker to the balancer, retrying to ride out
// balancer startup delays.
//
// Retry strategy:
//   - 10 attempts maximum
//   - 400ms delay between attempts
//   - Fatal error if all attempts fail
//
// Parameters:
//   - ctx: Context for the registration requests
//   - balancerAddr: Balancer base URL
//   - info: Identity and envelope sent to the balancer
func register(ctx context.Context, balancerAddr string, info cluster.WorkerInfo) {
	body := cluster.RegisterRequest{Worker: info}
	var lastErr error

	for i := 0; i < 10; i++ {
		lastErr = cluster.PostJSON(ctx, balancerAddr+"/register", body, nil)
		if lastErr == nil {
			log.Printf("registered with balancer @ %s", balancerAddr)
			return
		}
		log.Printf("register retry %d: %v", i+1, lastErr)
		time.Sleep(400 * time.Millisecond)
	}

	// A worker nobody routes to has no reason to run
	logFatal("failed to register with balancer: %v", lastErr)
}

// deregister removes the worker from the balancer's pool. Best effort: a
// balancer that is already gone cannot route here anyway, so failures are
// logged and ignored.
func deregister(ctx context.Context, balancerAddr, workerID string) {
	body := cluster.DeregisterRequest{WorkerID: workerID}
	if err := cluster.PostJSON(ctx, balancerAddr+"/deregister", body, nil); err != nil {
		log.Printf("deregister failed: %v", err)
		return
	}
	log.Printf("deregistered from balancer @ %s", balancerAddr)
}

// handleHealth responds to balancer probes with the worker's vitals.
//
// Endpoint: GET /health
//
// Response body:
//
//	{
//	  "status": "healthy",
//	  "timestamp": "2026-01-15T10:00:00Z",
//	  "hostname": "worker-host",
//	  "uptime": 123.4,
//	  "version": "0.1.0"
//	}
//
// The probe deadline lives on the balancer side; this handler answers
// immediately even while invocations are running.
func (wk *Worker) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hostname, _ := os.Hostname()
	report := cluster.HealthReport{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostname,
		Uptime:    time.Since(wk.started).Seconds(),
		Version:   version,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

// handleInvoke executes one unit of work.
//
// Endpoint: POST /invoke
//
// The current implementation is a stand-in executor: it consumes the
// payload, optionally sleeps for the configured WORK_DELAY, and reports how
// many bytes it received. Real deployments replace this handler with their
// workload.
//
// Response:
//   - 200 OK: Work executed, JSON result in body
//   - 400 Bad Request: Failed to read request body
func (wk *Worker) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload bytes.Buffer
	if _, err := payload.ReadFrom(r.Body); err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if wk.delay > 0 {
		time.Sleep(wk.delay)
	}
	processed := wk.processed.Add(1)

	response := struct {
		WorkerID  string `json:"worker_id"`
		Bytes     int    `json:"bytes"`
		Processed int64  `json:"processed"`
	}{
		WorkerID:  wk.ID,
		Bytes:     payload.Len(),
		Processed: processed,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// handleInfo reports the worker's identity and lifetime counters for
// debugging and monitoring.
//
// Endpoint: GET /info
//
// Response body:
//
//	{
//	  "worker_id": "worker-1",
//	  "processed": 42,
//	  "uptime": 123.4
//	}
func (wk *Worker) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := struct {
		WorkerID  string  `json:"worker_id"`
		Processed int64   `json:"processed"`
		Uptime    float64 `json:"uptime"`
	}{
		WorkerID:  wk.ID,
		Processed: wk.processed.Load(),
		Uptime:    time.Since(wk.started).Seconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// getenv retrieves an environment variable with a default fallback.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// mustGetenv retrieves a required environment variable, terminating the
// program if it's not set.
func mustGetenv(k string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	logFatal("missing env %s", k)
	return ""
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logFatal("invalid integer for %s: %v", k, err)
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logFatal("invalid boolean for %s: %v", k, err)
	}
	return b
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logFatal("invalid duration for %s: %v", k, err)
	}
	return d
}
