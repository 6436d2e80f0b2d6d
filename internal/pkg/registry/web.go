package registry

import (
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

// WebEntity is the management UI projection of a typed entity.
type WebEntity struct {
	Enabled      bool           `json:"enabled"`
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	DefaultName  string         `json:"default_name"`
	Nicknames    []string       `json:"nicknames"`
	Home         string         `json:"home"`
	Room         string         `json:"room"`
	Groups       []string       `json:"groups"`
	ModelID      string         `json:"model_id"`
	Category     model.Category `json:"category"`
	HwVersion    string         `json:"hw_version"`
	SwVersion    string         `json:"sw_version"`
	EntityHA     bool           `json:"entity_ha"`
	EntityType   string         `json:"entity_type"`
	FriendlyName string         `json:"friendly_name"`
}

func (r *Registry) WebEntity(entityID string) (WebEntity, error) {
	e, err := r.Get(entityID)
	if err != nil {
		return WebEntity{}, err
	}
	w := WebEntity{
		Enabled:      r.IsEnabled(entityID),
		ID:           entityID,
		Name:         e.Name(),
		DefaultName:  e.OriginalName(),
		Nicknames:    []string{},
		Groups:       r.Groups(entityID),
		Category:     e.Category(),
		EntityHA:     true,
		EntityType:   e.EntityCategory(),
		FriendlyName: e.State().Attributes.String("friendly_name"),
	}
	if w.Groups == nil {
		w.Groups = []string{}
	}
	if w.FriendlyName == "" {
		w.FriendlyName = e.OriginalName()
	}
	if d := e.Device(); d != nil {
		w.Room = d.AreaID
		w.ModelID = d.ModelID
		w.HwVersion = d.HwVersion
		w.SwVersion = d.SwVersion
	}
	return w, nil
}

// WebEntities projects every stored entity, sorted by id.
func (r *Registry) WebEntities() []WebEntity {
	out := make([]WebEntity, 0, len(r.entities))
	for _, id := range r.IDs() {
		w, err := r.WebEntity(id)
		if err != nil {
			continue
		}
		out = append(out, w)
	}
	return out
}
