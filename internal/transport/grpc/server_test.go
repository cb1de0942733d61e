package grpc_server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"

	"learnplatform/internal/infrastructure/repository/repotest"
	"learnplatform/internal/platform/logger"
)

func startServer(t *testing.T, s *HealthServer) healthpb.HealthClient {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.GracefulStop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func status(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthServing(t *testing.T) {
	db := repotest.NewDB(t)
	s := NewHealthServer(logger.NewNop())
	s.AddCheck("database", DatabaseCheck(db))
	s.AddCheck("redis", func(context.Context) error { return nil })

	client := startServer(t, s)
	require.True(t, s.CheckNow(context.Background()))

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, client, "database"))

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "redis"})
	require.NoError(t, err)
	want := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}
	assert.True(t, proto.Equal(want, resp), "got %v", resp)
}

func TestHealthUnknownService(t *testing.T) {
	s := NewHealthServer(logger.NewNop())
	client := startServer(t, s)
	s.CheckNow(context.Background())

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "payments"})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
}

func TestHealthNotServingWhenDatabaseDown(t *testing.T) {
	db := repotest.NewDB(t)
	s := NewHealthServer(logger.NewNop())
	s.AddCheck("database", DatabaseCheck(db))
	client := startServer(t, s)
	require.True(t, s.CheckNow(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.False(t, s.CheckNow(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client, "database"))
}

func TestHealthRunRecovers(t *testing.T) {
	failing := true
	s := NewHealthServer(logger.NewNop())
	s.AddCheck("redis", func(context.Context) error {
		if failing {
			return errors.New("connection refused")
		}
		return nil
	})
	client := startServer(t, s)

	assert.False(t, s.CheckNow(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client, "redis"))

	failing = false
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 20*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
