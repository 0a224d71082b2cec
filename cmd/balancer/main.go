// Package main implements the Ballast balancer, the control plane that
// routes work across a pool of backend workers and keeps that pool sized to
// its load.
//
// The balancer owns every long-lived component of the system:
//   - Worker registry and router (dispatch/complete)
//   - Health checker probing each worker's /health
//   - Auto-scaler growing and shrinking the pool from a standby address pool
//   - Cache cluster partitioning keys over consistent hashing
//   - Data-tier router for replicated or sharded persistent storage
//   - Event bus feeding the Prometheus collector
//
// Architecture:
//
//	┌────────────────────────────────────────────┐
//	│                 Balancer                   │
//	├────────────────────────────────────────────┤
//	│  HTTP API:                                 │
//	│    /register /deregister  - Membership     │
//	│    /dispatch /complete    - Work routing   │
//	│    /workers               - Pool view      │
//	│    /cache/{key}           - Cache ops      │
//	│    /data/{key}            - Data tier ops  │
//	│    /health /metrics       - Operability    │
//	├────────────────────────────────────────────┤
//	│  Background loops:                         │
//	│    HealthChecker  - probe sweep            │
//	│    AutoScaler     - load evaluation        │
//	│    Cache sweeper  - TTL expiry             │
//	└────────────────────────────────────────────┘
//
// Configuration (all optional):
//   - BALANCER_LISTEN: Listen address (default ":8080")
//   - BALANCER_POOL: Pool name used as the metrics label (default "default")
//   - BALANCER_STRATEGY: round_robin | weighted_round_robin | least_connections
//   - METRICS_ADDR: Standalone metrics listen address (default off;
//     /metrics is always served on the main listener)
//   - HEALTH_INTERVAL: Probe sweep interval (default "5s")
//   - HEALTH_LATENCY_BUDGET: Max healthy probe round trip (default "2s")
//   - HEALTH_FAILURE_THRESHOLD: Consecutive failures before unhealthy (default "1")
//   - SCALE_ENABLED: Run the auto-scaler (default "true")
//   - SCALE_MIN, SCALE_MAX: Pool size bounds (default "1", "8")
//   - SCALE_UP_THRESHOLD, SCALE_DOWN_THRESHOLD: Load percentages (default "70", "30")
//   - SCALE_INTERVAL: Evaluation interval (default "10s")
//   - SCALE_COOLDOWN: Minimum gap between actions in one direction (default "30s")
//   - SCALE_DRAIN_TIMEOUT: Max wait for a victim's in-flight work (default "30s")
//   - STANDBY_ADDRS: Comma-separated worker addresses the scaler may activate
//   - STANDBY_CAPACITY, STANDBY_WEIGHT: Envelope for activated standbys (default "10", "1")
//   - CACHE_NODES: Number of cache partitions (default "3")
//   - CACHE_MAX_ENTRIES: Per-partition entry bound (default "1024")
//   - DATA_MODE: replication | sharded (default "replication")
//   - DATA_DRIVER: memory | postgres | mysql | sqlite (default "memory")
//   - DATA_TABLE: Table name for SQL endpoints (default "ballast_data")
//   - DATA_PRIMARY_DSN: Primary DSN (SQL drivers, replication mode)
//   - DATA_REPLICA_DSNS, DATA_SHARD_DSNS: Comma-separated DSN lists. For the
//     memory driver the values are ignored; the list length sets the
//     endpoint count.
//
// Example usage:
//
//	# Start the balancer with two standby workers and a replica pair
//	BALANCER_STRATEGY=least_connections \
//	STANDBY_ADDRS=http://localhost:9101,http://localhost:9102 \
//	DATA_REPLICA_DSNS=mem,mem \
//	./balancer
//
//	# Dispatch a unit of work and complete it
//	curl -X POST localhost:8080/dispatch
//	curl -X POST localhost:8080/complete -d '{"worker_id":"worker-1"}'
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	// SQL drivers for the data tier. The memory driver needs none of them.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dreamware/ballast/internal/autoscale"
	"github.com/dreamware/ballast/internal/balancer"
	"github.com/dreamware/ballast/internal/cache"
	"github.com/dreamware/ballast/internal/cluster"
	"github.com/dreamware/ballast/internal/datatier"
	"github.com/dreamware/ballast/internal/events"
	"github.com/dreamware/ballast/internal/health"
	"github.com/dreamware/ballast/internal/metrics"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

// sqlDriverNames maps a DATA_DRIVER setting to its database/sql driver name.
var sqlDriverNames = map[string]string{
	"postgres": "postgres",
	"mysql":    "mysql",
	"sqlite":   "sqlite3",
}

type config struct {
	listen      string
	pool        string
	strategy    string
	metricsAddr string

	healthInterval   time.Duration
	latencyBudget    time.Duration
	failureThreshold int

	scaleEnabled  bool
	scaleMin      int
	scaleMax      int
	scaleUp       float64
	scaleDown     float64
	scaleInterval time.Duration
	scaleCooldown time.Duration
	drainTimeout  time.Duration

	standbyAddrs    []string
	standbyCapacity int64
	standbyWeight   int

	cacheNodes      int
	cacheMaxEntries int

	dataMode     string
	dataDriver   string
	dataTable    string
	dataPrimary  string
	dataReplicas []string
	dataShards   []string
}

func loadConfig() config {
	return config{
		listen:      getenv("BALANCER_LISTEN", ":8080"),
		pool:        getenv("BALANCER_POOL", "default"),
		strategy:    getenv("BALANCER_STRATEGY", balancer.StrategyRoundRobin),
		metricsAddr: getenv("METRICS_ADDR", ""),

		healthInterval:   getenvDuration("HEALTH_INTERVAL", 5*time.Second),
		latencyBudget:    getenvDuration("HEALTH_LATENCY_BUDGET", 2*time.Second),
		failureThreshold: getenvInt("HEALTH_FAILURE_THRESHOLD", 1),

		scaleEnabled:  getenvBool("SCALE_ENABLED", true),
		scaleMin:      getenvInt("SCALE_MIN", 1),
		scaleMax:      getenvInt("SCALE_MAX", 8),
		scaleUp:       getenvFloat("SCALE_UP_THRESHOLD", 70),
		scaleDown:     getenvFloat("SCALE_DOWN_THRESHOLD", 30),
		scaleInterval: getenvDuration("SCALE_INTERVAL", 10*time.Second),
		scaleCooldown: getenvDuration("SCALE_COOLDOWN", 30*time.Second),
		drainTimeout:  getenvDuration("SCALE_DRAIN_TIMEOUT", 30*time.Second),

		standbyAddrs:    getenvList("STANDBY_ADDRS"),
		standbyCapacity: int64(getenvInt("STANDBY_CAPACITY", 10)),
		standbyWeight:   getenvInt("STANDBY_WEIGHT", 1),

		cacheNodes:      getenvInt("CACHE_NODES", 3),
		cacheMaxEntries: getenvInt("CACHE_MAX_ENTRIES", 1024),

		dataMode:     getenv("DATA_MODE", "replication"),
		dataDriver:   getenv("DATA_DRIVER", "memory"),
		dataTable:    getenv("DATA_TABLE", "ballast_data"),
		dataPrimary:  getenv("DATA_PRIMARY_DSN", ""),
		dataReplicas: getenvList("DATA_REPLICA_DSNS"),
		dataShards:   getenvList("DATA_SHARD_DSNS"),
	}
}

func main() {
	cfg := loadConfig()

	registry := balancer.NewRegistry()
	store := health.NewStore()
	bus := events.NewBus()

	collector := metrics.NewCollector(cfg.pool)
	collector.Attach(bus)

	router, err := balancer.NewRouter(balancer.Config{
		Strategy: cfg.strategy,
		Registry: registry,
		Status:   store,
	})
	if err != nil {
		logFatal("router: %v", err)
	}

	checker := health.NewChecker(store, health.Config{
		Interval:         cfg.healthInterval,
		LatencyBudget:    cfg.latencyBudget,
		FailureThreshold: cfg.failureThreshold,
		Bus:              bus,
	})
	go checker.Start(nil, registry.Infos)

	var scaler *autoscale.Scaler
	if cfg.scaleEnabled {
		policy, err := autoscale.NewPolicy(
			autoscale.WithBounds(cfg.scaleMin, cfg.scaleMax),
			autoscale.WithThresholds(cfg.scaleUp, cfg.scaleDown),
			autoscale.WithCooldowns(cfg.scaleCooldown, cfg.scaleCooldown),
		)
		if err != nil {
			logFatal("scaling policy: %v", err)
		}
		scaler, err = autoscale.NewScaler(autoscale.Config{
			Registry:     registry,
			Status:       store,
			Policy:       policy,
			Provisioner:  newStandbyProvisioner(cfg.standbyAddrs, cfg.standbyCapacity, cfg.standbyWeight),
			Bus:          bus,
			Interval:     cfg.scaleInterval,
			DrainTimeout: cfg.drainTimeout,
		})
		if err != nil {
			logFatal("scaler: %v", err)
		}
		go scaler.Start(nil)
	}

	cacheCluster := cache.NewCluster(cache.Config{
		MaxEntriesPerNode: cfg.cacheMaxEntries,
		Bus:               bus,
	})
	for i := 1; i <= cfg.cacheNodes; i++ {
		if err := cacheCluster.AddNode(fmt.Sprintf("cache-%d", i)); err != nil {
			logFatal("cache node: %v", err)
		}
	}
	go cacheCluster.Start(nil)

	dataRouter, err := buildDataRouter(cfg)
	if err != nil {
		logFatal("data tier: %v", err)
	}

	srv := &server{
		registry:  registry,
		status:    store,
		router:    router,
		cache:     cacheCluster,
		data:      dataRouter,
		bus:       bus,
		collector: collector,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/register", srv.handleRegister)
	mux.HandleFunc("/deregister", srv.handleDeregister)
	mux.HandleFunc("/dispatch", srv.handleDispatch)
	mux.HandleFunc("/complete", srv.handleComplete)
	mux.HandleFunc("/workers", srv.handleWorkers)
	mux.HandleFunc("/cache/stats", srv.handleCacheStats)
	mux.HandleFunc("/cache/", srv.handleCache)
	mux.HandleFunc("/data/", srv.handleData)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              cfg.listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("balancer listening on %s (pool %s, strategy %s)", cfg.listen, cfg.pool, router.Strategy())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	var metricsSrv *metrics.Server
	if cfg.metricsAddr != "" {
		metricsSrv = metrics.NewServer(cfg.metricsAddr)
		metricsSrv.Start()
		log.Printf("metrics listening on %s", cfg.metricsAddr)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(ctx)
	}
	if scaler != nil {
		scaler.Stop()
	}
	checker.Stop()
	cacheCluster.Stop()
	dataRouter.Close()
	collector.Detach()
	log.Println("balancer stopped")
}

// buildDataRouter assembles the data-tier router from the configured mode,
// driver, and DSN lists.
func buildDataRouter(cfg config) (*datatier.Router, error) {
	switch cfg.dataMode {
	case "replication":
		primary, err := buildEndpoint(cfg, "primary", cfg.dataPrimary)
		if err != nil {
			return nil, err
		}
		replicas := make([]datatier.Endpoint, 0, len(cfg.dataReplicas))
		for i, dsn := range cfg.dataReplicas {
			replica, err := buildEndpoint(cfg, fmt.Sprintf("replica-%d", i+1), dsn)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, replica)
		}
		return datatier.NewRouter(datatier.Config{Primary: primary, Replicas: replicas})
	case "sharded":
		if len(cfg.dataShards) == 0 {
			return nil, fmt.Errorf("sharded mode needs at least one DATA_SHARD_DSNS entry")
		}
		shards := make([]datatier.Endpoint, 0, len(cfg.dataShards))
		for i, dsn := range cfg.dataShards {
			shard, err := buildEndpoint(cfg, fmt.Sprintf("shard-%d", i), dsn)
			if err != nil {
				return nil, err
			}
			shards = append(shards, shard)
		}
		return datatier.NewRouter(datatier.Config{Shards: shards})
	default:
		return nil, fmt.Errorf("unknown DATA_MODE %q", cfg.dataMode)
	}
}

// buildEndpoint creates one storage endpoint. SQL endpoints get their schema
// ensured before the balancer starts accepting traffic.
func buildEndpoint(cfg config, id, dsn string) (datatier.Endpoint, error) {
	if cfg.dataDriver == "memory" {
		return datatier.NewMemoryEndpoint(id), nil
	}
	driverName, ok := sqlDriverNames[cfg.dataDriver]
	if !ok {
		return nil, fmt.Errorf("unknown DATA_DRIVER %q", cfg.dataDriver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("data endpoint %s needs a DSN", id)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", id, err)
	}
	endpoint, err := datatier.NewSQLEndpoint(id, db, datatier.Dialect(cfg.dataDriver), cfg.dataTable)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := endpoint.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema for %s: %w", id, err)
	}
	return endpoint, nil
}

// server holds the wired components behind the HTTP surface. Every field is
// internally synchronized, so handlers never take a lock here.
type server struct {
	registry  *balancer.Registry
	status    *health.Store
	router    *balancer.Router
	cache     *cache.Cluster
	data      *datatier.Router
	bus       *events.Bus
	collector *metrics.Collector
}

// handleRegister admits a worker into the pool. Re-registering an existing
// ID replaces the previous entry: a restarted worker starts with a clean
// in-flight count.
func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cluster.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Worker.ID == "" || req.Worker.Addr == "" {
		http.Error(w, "missing id/addr", http.StatusBadRequest)
		return
	}

	if _, err := s.registry.Add(req.Worker); err != nil {
		if !errors.Is(err, balancer.ErrDuplicateWorker) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if old, ok := s.registry.Remove(req.Worker.ID); ok {
			s.bus.Publish(events.NewWorkerRemoved(old.ID(), "deregistered", old.InFlight()))
		}
		if _, err := s.registry.Add(req.Worker); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	log.Printf("registered worker %s @ %s (capacity %d, weight %d)",
		req.Worker.ID, req.Worker.Addr, req.Worker.Capacity, req.Worker.Weight)
	s.bus.Publish(events.NewWorkerAdded(req.Worker.ID, req.Worker.Addr, req.Worker.Capacity, req.Worker.Weight))
	w.WriteHeader(http.StatusNoContent)
}

// handleDeregister removes a worker by operator or worker request. In-flight
// work on the removed worker is reported as abandoned.
func (s *server) handleDeregister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cluster.DeregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.WorkerID == "" {
		http.Error(w, "missing worker_id", http.StatusBadRequest)
		return
	}

	worker, ok := s.registry.Remove(req.WorkerID)
	if !ok {
		http.Error(w, "unknown worker", http.StatusNotFound)
		return
	}

	log.Printf("deregistered worker %s (%d in flight)", req.WorkerID, worker.InFlight())
	s.bus.Publish(events.NewWorkerRemoved(req.WorkerID, "deregistered", worker.InFlight()))
	w.WriteHeader(http.StatusNoContent)
}

// handleDispatch selects a worker for one unit of work and reserves a slot
// on it. The caller owns the slot until it posts /complete.
func (s *server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	workerID, err := s.router.Dispatch()
	s.collector.ObserveDispatchDuration(time.Since(start).Seconds())
	if err != nil {
		s.collector.IncDispatch("no_capacity")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.collector.IncDispatch("ok")

	resp := cluster.DispatchResponse{WorkerID: workerID}
	if worker, ok := s.registry.Get(workerID); ok {
		resp.Addr = worker.Addr()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleComplete releases the slot a prior dispatch reserved. Completions
// for workers that have since been removed are accepted silently.
func (s *server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cluster.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.WorkerID == "" {
		http.Error(w, "missing worker_id", http.StatusBadRequest)
		return
	}

	s.router.Complete(req.WorkerID)
	w.WriteHeader(http.StatusNoContent)
}

// workerView is one row of the /workers listing.
type workerView struct {
	cluster.WorkerInfo
	InFlight int64  `json:"in_flight"`
	Draining bool   `json:"draining"`
	Status   string `json:"status"`
}

func (s *server) handleWorkers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workers := s.registry.Workers()
	views := make([]workerView, 0, len(workers))
	for _, worker := range workers {
		status := health.StatusUnknown
		if record, ok := s.status.Get(worker.ID()); ok {
			status = record.Status
		}
		views = append(views, workerView{
			WorkerInfo: worker.Info(),
			InFlight:   worker.InFlight(),
			Draining:   worker.Draining(),
			Status:     string(status),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Workers []workerView `json:"workers"`
		Count   int          `json:"count"`
	}{Workers: views, Count: len(views)})
}

// handleCache serves GET/PUT/DELETE /cache/{key}. A PUT takes an optional
// ?ttl= duration; without it the entry lives until evicted.
func (s *server) handleCache(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/cache/")
	if key == "" {
		http.Error(w, "key required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		value, ok := s.cache.Get(key)
		if !ok {
			http.Error(w, "cache miss", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(value)
	case http.MethodPut:
		var ttl time.Duration
		if raw := r.URL.Query().Get("ttl"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				http.Error(w, "bad ttl", http.StatusBadRequest)
				return
			}
			ttl = parsed
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if err := s.cache.Set(key, body, ttl); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := s.cache.Invalidate(key); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCacheStats reports per-partition hit/miss/eviction counters. This
// route shadows the cache key "stats".
func (s *server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Nodes   map[string]cache.Stats `json:"nodes"`
		Entries int                    `json:"entries"`
	}{Nodes: s.cache.Stats(), Entries: s.cache.Len()})
}

// handleData serves GET/PUT/DELETE /data/{key}. Reads take an optional
// ?consistency=strong|eventual (default eventual).
func (s *server) handleData(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/data/")
	if key == "" {
		http.Error(w, "key required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		consistency, err := datatier.ParseConsistency(r.URL.Query().Get("consistency"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value, err := s.data.Read(r.Context(), key, consistency)
		if errors.Is(err, datatier.ErrKeyNotFound) {
			http.Error(w, "key not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(value)
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if err := s.data.Write(r.Context(), key, body); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := s.data.Delete(r.Context(), key); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
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

func getenvFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logFatal("invalid number for %s: %v", k, err)
	}
	return f
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

// getenvList splits a comma-separated environment variable, dropping empty
// entries.
func getenvList(k string) []string {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
