package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Redefinition overrides the placement or name an entity is published with.
// Nil fields pass upstream values through.
type Redefinition struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
	Home *string `json:"home"`
	Room *string `json:"room"`
}

// Load reads the placement overrides and the enabled set. A missing file is an
// empty store. A malformed file is reported as ErrStoreDecode and replaced by
// an empty default so the registry stays usable.
func (r *Registry) Load() error {
	var errs []error

	placements := map[string]Redefinition{}
	if err := readJSON(r.placementsPath, &placements); err != nil {
		errs = append(errs, err)
		placements = map[string]Redefinition{}
	}
	r.redefinitions = make(map[string]*Redefinition, len(placements))
	for _, p := range placements {
		if p.ID == "" {
			continue
		}
		r.redefinitions[p.ID] = &p
	}

	var enabled []string
	if err := readJSON(r.enabledPath, &enabled); err != nil {
		errs = append(errs, err)
		enabled = nil
	}
	r.enabled = lo.Uniq(enabled)

	return errors.Join(errs...)
}

func readJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreDecode, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreDecode, path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Save rewrites both store files.
func (r *Registry) Save() error {
	placements := make(map[string]Redefinition, len(r.redefinitions))
	for id, p := range r.redefinitions {
		placements[id] = *p
	}
	enabled := r.enabled
	if enabled == nil {
		enabled = []string{}
	}
	err := errors.Join(writeJSON(r.placementsPath, placements), writeJSON(r.enabledPath, enabled))
	if err != nil {
		r.logger.Error("failed to save registry store", zap.Error(err))
	}
	return err
}

// Redefinition returns a copy of the override for id, if any.
func (r *Registry) Redefinition(id string) (Redefinition, bool) {
	p, ok := r.redefinitions[id]
	if !ok {
		return Redefinition{ID: id}, false
	}
	return *p, true
}

func (r *Registry) redefinition(id string) *Redefinition {
	p, ok := r.redefinitions[id]
	if !ok {
		p = &Redefinition{ID: id}
		r.redefinitions[id] = p
	}
	return p
}

func (r *Registry) RedefinePlacement(id, home, room string) error {
	p := r.redefinition(id)
	p.Home = &home
	p.Room = &room
	return r.Save()
}

func (r *Registry) Rename(id, name string) error {
	r.redefinition(id).Name = &name
	return r.Save()
}

func (r *Registry) Enable(id string) error {
	if lo.Contains(r.enabled, id) {
		return nil
	}
	r.enabled = append(r.enabled, id)
	return r.Save()
}

func (r *Registry) Disable(id string) error {
	if !lo.Contains(r.enabled, id) {
		return nil
	}
	r.enabled = lo.Without(r.enabled, id)
	return r.Save()
}

func (r *Registry) IsEnabled(id string) bool {
	return lo.Contains(r.enabled, id)
}

// Enabled returns the enabled ids in the order they were enabled.
func (r *Registry) Enabled() []string {
	return slices.Clone(r.enabled)
}
