// Package natstest runs an embedded NATS server for tests.
package natstest

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// StartServer starts an embedded NATS server on a random port and stops it
// when the test ends.
func StartServer(tb testing.TB) *natsserver.Server {
	tb.Helper()

	opts := &natsserver.Options{
		Host:           "127.0.0.1",
		Port:           -1,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 2048,
	}

	server, err := natsserver.NewServer(opts)
	if err != nil {
		tb.Fatalf("create NATS server: %v", err)
	}

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		tb.Fatal("NATS server not ready")
	}

	tb.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

// Connect starts a server and returns a client connection to it.
func Connect(tb testing.TB) (*natsserver.Server, *nats.Conn) {
	tb.Helper()

	server := StartServer(tb)
	nc, err := nats.Connect(server.ClientURL())
	if err != nil {
		tb.Fatalf("connect NATS: %v", err)
	}
	tb.Cleanup(nc.Close)

	return server, nc
}
