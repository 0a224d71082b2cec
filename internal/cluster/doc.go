// Package cluster provides the shared wire types and HTTP helpers for
// Ballast, defining how the balancer control plane and its backend workers
// describe themselves to each other.
//
// # Overview
//
// The cluster package is the thinnest layer of the system: plain structs with
// JSON tags plus two transport helpers. Every other package either consumes
// these types (balancer, health, autoscale) or serves them over HTTP (the
// balancer and worker binaries). Keeping the wire vocabulary in one place
// means the control plane and the workers can never disagree about field
// names.
//
// # Architecture
//
// The package sits below everything else:
//
//	              ┌──────────────┐
//	              │   Balancer   │
//	              │              │
//	              │ - Registry   │
//	              │ - Router     │
//	              │ - Checker    │
//	              └──────┬───────┘
//	                     │ WorkerInfo / HealthReport
//	      ┌──────────────┼──────────────┐
//	      │              │              │
//	┌─────▼─────┐ ┌─────▼─────┐ ┌─────▼─────┐
//	│ Worker 1  │ │ Worker 2  │ │ Worker 3  │
//	│ cap: 10   │ │ cap: 10   │ │ cap: 20   │
//	│ weight: 1 │ │ weight: 1 │ │ weight: 2 │
//	└───────────┘ └───────────┘ └───────────┘
//
// # Core Components
//
// WorkerInfo: Identity and serving envelope of one worker
//   - Opaque string ID, dial address
//   - Declared concurrent capacity (dispatch ceiling)
//   - Selection weight, bound at registration
//
// RegisterRequest: Worker self-announcement to the balancer
//   - Carries the full WorkerInfo
//   - Sent with bounded retries on worker startup
//
// DispatchResponse / CompleteRequest: The dispatch round trip
//   - DispatchResponse names the chosen worker
//   - CompleteRequest releases the worker's in-flight slot
//
// HealthReport: Payload served by a worker on GET /health
//   - status, timestamp, hostname, uptime, version
//   - The balancer's prober only inspects the status code;
//     the body exists for humans and external monitors
//
// # Communication Protocol
//
// All communication is HTTP/JSON:
//
// Worker Registration (POST /register):
//   - Workers announce themselves to the balancer
//   - Re-registering an ID replaces the previous entry
//
// Health Checking (GET /health):
//   - Periodic liveness probes from balancer to workers
//   - Latency-budget based failure detection
//
// Dispatch (POST /dispatch, POST /complete):
//   - Callers obtain a worker, invoke it, then report completion
//   - Completion for an already-removed worker is a no-op
//
// # Concurrency Model
//
// The types here are plain values with no internal synchronization; ownership
// of mutable worker state lives in the balancer package. PostJSON and GetJSON
// share one http.Client with a 5 second timeout and are safe for concurrent
// use.
//
// # Failure Handling
//
// Both helpers treat any status >= 300 as an error and never retry; retry
// policy belongs to callers (the worker's registration loop retries, the
// health prober does not).
//
// # Usage Example
//
//	// Register a worker with the balancer
//	req := cluster.RegisterRequest{
//	    Worker: cluster.WorkerInfo{
//	        ID:       "worker-1",
//	        Addr:     "http://localhost:8081",
//	        Capacity: 10,
//	        Weight:   1,
//	    },
//	}
//	if err := cluster.PostJSON(ctx, balancerURL+"/register", req, nil); err != nil {
//	    log.Printf("registration failed: %v", err)
//	}
//
// # See Also
//
// Related packages:
//   - internal/balancer: Registry, strategies, and dispatch
//   - internal/health: Probing and status tracking
//   - internal/autoscale: Pool growth and shrinkage
package cluster
