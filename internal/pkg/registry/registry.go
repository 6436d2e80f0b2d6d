package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/entity"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

var (
	ErrUnknownEntity = errors.New("registry: unknown entity")
	ErrStoreDecode   = errors.New("registry: malformed store file")
)

// Registry owns the typed entities, the device metadata they link to, group
// membership and the operator overrides. It is not safe for concurrent use.
type Registry struct {
	logger *zap.Logger

	ctors    map[string]entity.Constructor
	entities map[string]entity.Entity
	devices  map[string]*model.Device
	areas    map[string]string
	// groups maps a member entity id to the group entities that list it.
	groups map[string][]string

	redefinitions map[string]*Redefinition
	enabled       []string

	placementsPath string
	enabledPath    string
}

// New builds an empty registry. Overrides are read by Load and written back
// to the two files on every mutation.
func New(ctors map[string]entity.Constructor, placementsPath, enabledPath string) *Registry {
	return &Registry{
		logger:         zap.L(),
		ctors:          ctors,
		entities:       map[string]entity.Entity{},
		devices:        map[string]*model.Device{},
		areas:          map[string]string{},
		groups:         map[string][]string{},
		redefinitions:  map[string]*Redefinition{},
		placementsPath: placementsPath,
		enabledPath:    enabledPath,
	}
}

// Supports reports whether a typed variant is registered for the domain.
func (r *Registry) Supports(domain string) bool {
	_, ok := r.ctors[domain]
	return ok
}

// Create builds, but does not store, the entity for a registry record. Records
// of unsupported domains yield false.
func (r *Registry) Create(rec model.EntityRecord) (entity.Entity, bool) {
	ctor, ok := r.ctors[model.Domain(rec.EntityID)]
	if !ok {
		return nil, false
	}
	return ctor(rec), true
}

// Upsert stores the entity under its entity id and links its device when the
// device is already known and the entity is not linked yet.
func (r *Registry) Upsert(e entity.Entity) {
	if _, ok := r.entities[e.EntityID()]; ok {
		r.logger.Debug("updating entity", zap.String("entity_id", e.EntityID()))
	} else {
		r.logger.Debug("adding entity", zap.String("entity_id", e.EntityID()))
	}
	r.entities[e.EntityID()] = e
	r.link(e)
}

func (r *Registry) link(e entity.Entity) {
	if e.Device() != nil || e.DeviceID() == "" {
		return
	}
	device, ok := r.devices[e.DeviceID()]
	if !ok {
		return
	}
	if err := e.LinkDevice(device); err != nil {
		r.logger.Warn("failed to link device", zap.String("entity_id", e.EntityID()), zap.Error(err))
	}
}

// UpsertDevice stores device metadata. Known devices are updated in place so
// entities already linked to them observe the change.
func (r *Registry) UpsertDevice(rec model.DeviceRecord) *model.Device {
	device := model.NewDevice(rec)
	if existing, ok := r.devices[rec.ID]; ok {
		*existing = *device
		return existing
	}
	r.devices[rec.ID] = device
	for _, e := range r.entities {
		if e.DeviceID() == rec.ID {
			r.link(e)
		}
	}
	return device
}

func (r *Registry) Device(id string) (*model.Device, bool) {
	d, ok := r.devices[id]
	return d, ok
}

// SetAreas replaces the area id → name cache.
func (r *Registry) SetAreas(areas []model.AreaRecord) {
	r.areas = make(map[string]string, len(areas))
	for _, a := range areas {
		r.areas[a.AreaID] = a.Name
	}
}

// AreaName resolves an area id to its name. Unknown ids are returned as is.
func (r *Registry) AreaName(id string) string {
	if name, ok := r.areas[id]; ok {
		return name
	}
	return id
}

func (r *Registry) Get(entityID string) (entity.Entity, error) {
	e, ok := r.entities[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
	}
	return e, nil
}

// IDs returns the stored entity ids in sorted order.
func (r *Registry) IDs() []string {
	ids := lo.Keys(r.entities)
	slices.Sort(ids)
	return ids
}

func (r *Registry) Len() int {
	return len(r.entities)
}

// UpdateByHAState refreshes a known entity, registering any group membership
// its attributes declare first. Unknown entities of a supported domain are
// created from the snapshot and stored. It returns the entity that now holds
// the snapshot.
func (r *Registry) UpdateByHAState(state model.HAState) (entity.Entity, bool) {
	if e, ok := r.entities[state.EntityID]; ok {
		r.registerGroups(state)
		e.FillByHAState(state)
		return e, true
	}
	e, ok := r.Create(model.EntityRecord{EntityID: state.EntityID})
	if !ok {
		return nil, false
	}
	r.registerGroups(state)
	e.FillByHAState(state)
	r.Upsert(e)
	return e, true
}

func (r *Registry) registerGroups(state model.HAState) {
	for _, member := range state.Attributes.Strings("entity_id") {
		if !lo.Contains(r.groups[member], state.EntityID) {
			r.groups[member] = append(r.groups[member], state.EntityID)
		}
	}
}

// Groups returns the group entities that list entityID as a member.
func (r *Registry) Groups(entityID string) []string {
	return slices.Clone(r.groups[entityID])
}
