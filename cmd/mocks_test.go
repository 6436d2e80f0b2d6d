package cmd

import (
	"context"
	"sync"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/devicedb"
)

// MockBroker is a mock implementation of Broker
type MockBroker struct {
	ConnectFunc func() error

	mu     sync.Mutex
	closed bool
}

func (m *MockBroker) Connect() error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc()
	}
	return nil
}

func (m *MockBroker) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *MockBroker) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockUpstreamService is a mock implementation of UpstreamService
type MockUpstreamService struct {
	RunFunc func(ctx context.Context) error
}

func (m *MockUpstreamService) Run(ctx context.Context) error {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// MockDownstreamService is a mock implementation of DownstreamService
type MockDownstreamService struct {
	StartFunc         func(ctx context.Context) error
	PublishStatusFunc func(ids ...string) error

	published int
}

func (m *MockDownstreamService) Start(ctx context.Context) error {
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	return nil
}

func (m *MockDownstreamService) PublishStatus(ids ...string) error {
	m.published++
	if m.PublishStatusFunc != nil {
		return m.PublishStatusFunc(ids...)
	}
	return nil
}

// MockDeviceDatabase is a mock implementation of DeviceDatabase
type MockDeviceDatabase struct {
	StatsFunc func() devicedb.Stats
}

func (m *MockDeviceDatabase) Stats() devicedb.Stats {
	if m.StatsFunc != nil {
		return m.StatsFunc()
	}
	return devicedb.Stats{}
}
