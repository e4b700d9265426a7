package broker

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// IsClosed reports whether the underlying NATS connection is closed.
func (j *JetStream) IsClosed() bool { return j.nc.IsClosed() }

// RunJetStreamServer starts an in-process JetStream server on a random port
// and stops it when the test ends.
func RunJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	s, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	if err != nil {
		t.Fatalf("create nats server: %v", err)
	}
	go s.Start()
	if !s.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(s.Shutdown)
	return s
}
