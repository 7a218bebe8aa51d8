// Package health reports database reachability over HTTP and the gRPC
// health checking protocol.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "eshop"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Checker struct {
	db      Pinger
	srv     *health.Server
	Timeout time.Duration
}

func NewChecker(db Pinger) *Checker {
	return &Checker{db: db, srv: health.NewServer(), Timeout: 2 * time.Second}
}

// Server is the gRPC health service whose status follows Probe.
func (c *Checker) Server() *health.Server { return c.srv }

// Probe pings the database once and publishes the result.
func (c *Checker) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	err := c.db.PingContext(ctx)
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	c.srv.SetServingStatus("", status)
	c.srv.SetServingStatus(ServiceName, status)
	return err
}

// Watch probes every interval until ctx is done.
func (c *Checker) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := c.Probe(ctx); err != nil {
			log.Warn().Err(err).Msg("database ping failed")
		}
		select {
		case <-ctx.Done():
			c.srv.Shutdown()
			return
		case <-t.C:
		}
	}
}

// ServeHTTP answers 200 when the database responds and 503 otherwise.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, db := http.StatusOK, "healthy"
	if err := c.Probe(r.Context()); err != nil {
		log.Warn().Err(err).Msg("health check db ping")
		code, db = http.StatusServiceUnavailable, "unhealthy"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"service":   ServiceName,
		"database":  db,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NewGRPCServer returns a server exposing only the health and reflection
// services.
func NewGRPCServer(c *Checker, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	grpc_health_v1.RegisterHealthServer(s, c.Server())
	reflection.Register(s)
	return s
}
