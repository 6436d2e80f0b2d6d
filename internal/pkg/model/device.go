package model

import (
	"strings"

	"github.com/gosimple/slug"
)

const Unknown = "Unknown"

// Device is the physical-device metadata behind one or more entities. Name is
// the user-assigned name, OriginalName the one reported by the integration.
type Device struct {
	ID           string
	AreaID       string
	Manufacturer string
	Model        string
	ModelID      string
	Name         string
	OriginalName string
	HwVersion    string
	SwVersion    string
}

func NewDevice(rec DeviceRecord) *Device {
	return &Device{
		ID:           rec.ID,
		AreaID:       rec.AreaID,
		Manufacturer: orUnknown(rec.Manufacturer),
		Model:        orUnknown(rec.Model),
		ModelID:      rec.ModelID,
		Name:         rec.NameByUser,
		OriginalName: rec.Name,
		HwVersion:    orUnknown(rec.HwVersion),
		SwVersion:    orUnknown(rec.SwVersion),
	}
}

// DisplayName prefers the user-assigned name, then the integration's name,
// then fallback.
func (d *Device) DisplayName(fallback string) string {
	switch {
	case d.Name != "":
		return d.Name
	case d.OriginalName != "":
		return d.OriginalName
	}
	return fallback
}

// SberModelID returns the upstream model id, or a slug of manufacturer and
// model when upstream does not report one.
func (d *Device) SberModelID() string {
	if d.ModelID != "" {
		return d.ModelID
	}
	return slug.Make(strings.Join([]string{d.Manufacturer, d.Model}, " "))
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
