package devicedb

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/entity"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/registry"
)

var ErrNotReady = errors.New("devicedb: bootstrap has not completed")

// Database joins the typed registry and the legacy flat map behind one lock
// and gates payload construction on bootstrap completion.
type Database struct {
	logger *zap.Logger

	mu        sync.Mutex
	registry  *registry.Registry
	legacy    map[string]*LegacyDevice
	catalogue Catalogue
	version   string

	ready     chan struct{}
	readyOnce sync.Once
}

func New(reg *registry.Registry, catalogue Catalogue, version string) *Database {
	return &Database{
		logger:    zap.L(),
		registry:  reg,
		legacy:    map[string]*LegacyDevice{},
		catalogue: catalogue,
		version:   version,
		ready:     make(chan struct{}),
	}
}

// SetReady opens the readiness gate. Further calls are no-ops.
func (db *Database) SetReady() {
	db.readyOnce.Do(func() {
		db.logger.Info("device database ready")
		close(db.ready)
	})
}

func (db *Database) IsReady() bool {
	select {
	case <-db.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the gate opens or ctx is done.
func (db *Database) WaitReady(ctx context.Context) error {
	select {
	case <-db.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetAreas replaces the area name cache.
func (db *Database) SetAreas(areas []model.AreaRecord) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.registry.SetAreas(areas)
}

func (db *Database) UpsertDevices(devices []model.DeviceRecord) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, rec := range devices {
		db.registry.UpsertDevice(rec)
	}
}

// UpsertEntities creates and stores typed entities for records of supported
// domains. It returns the number stored.
func (db *Database) UpsertEntities(records []model.EntityRecord) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, rec := range records {
		e, ok := db.registry.Create(rec)
		if !ok {
			continue
		}
		db.registry.Upsert(e)
		n++
	}
	return n
}

// ApplyStateChange routes a steady-state event to the typed entity, or to the
// legacy heuristics when the id is not typed. It reports whether a states-list
// update for the id should be published.
func (db *Database) ApplyStateChange(entityID string, oldState, newState *model.HAState) bool {
	if newState == nil {
		return false
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if e, err := db.registry.Get(entityID); err == nil {
		e.ProcessStateChange(oldState, newState)
		return true
	}
	return db.applyLegacyEvent(entityID, oldState, *newState)
}

// ProcessCommand translates one device's Sber command. Typed entities produce
// their own service calls, legacy devices are mutated and get a category
// specific call.
func (db *Database) ProcessCommand(id string, states []model.State) (entity.CommandResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e, err := db.registry.Get(id); err == nil {
		return e.ProcessCommand(states), nil
	}
	return db.legacyCommand(id, states)
}

func (db *Database) RedefinePlacement(id, home, room string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.registry.RedefinePlacement(id, home, room)
}

func (db *Database) Rename(id, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.registry.Rename(id, name)
}

// Enable exposes a typed or legacy id to Sber.
func (db *Database) Enable(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.registry.Enable(id)
}

func (db *Database) Disable(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.registry.Disable(id)
}

func (db *Database) WebEntities() []registry.WebEntity {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.registry.WebEntities()
}

// Stats is a point-in-time summary used by the heartbeat.
type Stats struct {
	Ready   bool
	Typed   int
	Legacy  int
	Enabled int
}

func (db *Database) Stats() Stats {
	db.mu.Lock()
	defer db.mu.Unlock()
	return Stats{
		Ready:   db.IsReady(),
		Typed:   db.registry.Len(),
		Legacy:  len(db.legacy),
		Enabled: len(db.registry.Enabled()),
	}
}
