package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func newMock(t *testing.T) (*Checker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewChecker(db), mock
}

func status(t *testing.T, c *Checker, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Server().Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestChecker_Probe(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	require.NoError(t, c.Probe(context.Background()))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, status(t, c, ServiceName))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, status(t, c, ""))

	require.Error(t, c.Probe(context.Background()))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, status(t, c, ServiceName))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecker_ServeHTTP(t *testing.T) {
	c, mock := newMock(t)
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["database"])

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["database"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewGRPCServer(t *testing.T) {
	c, _ := newMock(t)
	s := NewGRPCServer(c)
	defer s.Stop()
	info := s.GetServiceInfo()
	assert.Contains(t, info, "grpc.health.v1.Health")
}
