package internal

import (
	"context"
	"net/http"

	"connectrpc.com/grpchealth"

	"github.com/twominute/twominute/pkg/cerr"
)

// HealthService is the service name reported by the gRPC health endpoint in
// addition to the empty whole-server name.
const HealthService = "twominute"

// HealthProbe reports whether the task and user store can be reached.
type HealthProbe func(ctx context.Context) error

// storeChecker answers gRPC health checks by probing the store. A failed
// probe is returned as Unavailable so it shows up in the connect log.
type storeChecker struct {
	probe HealthProbe
}

func (c *storeChecker) Check(ctx context.Context, req *grpchealth.CheckRequest) (*grpchealth.CheckResponse, error) {
	if req.Service != "" && req.Service != HealthService {
		return nil, cerr.NewError(cerr.NotFound, "unknown service", nil)
	}
	if c.probe != nil {
		if err := c.probe(ctx); err != nil {
			return nil, cerr.NewError(cerr.Unavailable, "storage unavailable", err)
		}
	}
	return &grpchealth.CheckResponse{Status: grpchealth.StatusServing}, nil
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
