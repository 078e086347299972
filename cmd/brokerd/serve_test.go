package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestServeHTTPReturnsListenError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer taken.Close()

	server := &http.Server{Addr: taken.Addr().String(), Handler: http.NotFoundHandler()}
	err = serveHTTP(context.Background(), server, &runtime{logger: zap.NewNop()})
	if err == nil {
		t.Fatal("serveHTTP() on a taken port returned nil")
	}
}

func TestServeHTTPStopsOnContext(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := serveHTTP(ctx, server, &runtime{logger: zap.NewNop()}); err != nil {
		t.Errorf("serveHTTP() error = %v, want nil", err)
	}
}
