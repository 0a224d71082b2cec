package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WorkerInfo identifies a backend worker and its declared serving envelope.
// Capacity is the maximum number of concurrently in-flight work units the
// worker accepts; Weight biases weighted round-robin selection and is bound
// at registration time.
type WorkerInfo struct {
	ID       string `json:"id"`
	Addr     string `json:"addr"`
	Capacity int64  `json:"capacity"`
	Weight   int    `json:"weight"`
}

// RegisterRequest is sent by a worker announcing itself to the balancer.
type RegisterRequest struct {
	Worker WorkerInfo `json:"worker"`
}

// DeregisterRequest is sent to remove a worker from the balancer's registry.
type DeregisterRequest struct {
	WorkerID string `json:"worker_id"`
}

// DispatchResponse carries the worker chosen for one unit of work. Addr is
// included so the caller can invoke the worker directly.
type DispatchResponse struct {
	WorkerID string `json:"worker_id"`
	Addr     string `json:"addr"`
}

// CompleteRequest reports that a previously dispatched unit of work finished.
type CompleteRequest struct {
	WorkerID string `json:"worker_id"`
}

// HealthReport is the payload a worker serves on GET /health. Uptime is in
// seconds.
type HealthReport struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Hostname  string  `json:"hostname"`
	Uptime    float64 `json:"uptime"`
	Version   string  `json:"version"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
