package natsbus

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/nkern/swarmhub/internal/config"
	natsserver "github.com/nats-io/nats-server/v2/server"
)

// Bus is an embedded NATS server used as the process-wide broadcast
// backbone: every room publishes its command dispatcher's broadcast
// frames on a room-scoped subject and subscribes to the same subject to
// fan them out to its own WebSocket sockets (see TopicRoomBroadcast).
type Bus struct {
	server *natsserver.Server
	cfg    config.NATSConfig
	port   int
}

func New(cfg config.NATSConfig) (*Bus, error) {
	return newBus(cfg, cfg.Port)
}

// NewForTest creates a Bus on a random port for testing.
func NewForTest(cfg config.NATSConfig) (*Bus, error) {
	return newBus(cfg, 0)
}

func newBus(cfg config.NATSConfig, port int) (*Bus, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create nats data dir: %w", err)
	}

	opts := &natsserver.Options{
		Port:     port,
		NoLog:    true,
		NoSigs:   true,
		StoreDir: cfg.DataDir,
	}

	ns, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("nats server not ready")
	}

	// Resolve actual port (may differ from requested when port=0)
	actualPort := ns.Addr().(*net.TCPAddr).Port

	return &Bus{
		server: ns,
		cfg:    cfg,
		port:   actualPort,
	}, nil
}

func (b *Bus) ClientURL() string {
	return b.server.ClientURL()
}

func (b *Bus) Port() int {
	return b.port
}

func (b *Bus) Close() {
	b.server.Shutdown()
	b.server.WaitForShutdown()
}
