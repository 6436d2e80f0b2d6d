package cmd

import (
	"context"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/devicedb"
)

// Broker is the downstream MQTT connection.
type Broker interface {
	Connect() error
	Close()
}

// UpstreamService keeps the Home Assistant connection alive until ctx is done.
type UpstreamService interface {
	Run(ctx context.Context) error
}

// DownstreamService handles the Sber topics.
type DownstreamService interface {
	Start(ctx context.Context) error
	PublishStatus(ids ...string) error
}

// DeviceDatabase is what the heartbeat reports on.
type DeviceDatabase interface {
	Stats() devicedb.Stats
}
