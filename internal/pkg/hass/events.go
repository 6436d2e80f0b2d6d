package hass

import (
	"strings"

	"go.uber.org/zap"
)

func (s *service) ignored(entityID string) bool {
	for _, prefix := range s.cfg.IgnorePrefixes {
		if strings.HasPrefix(entityID, prefix) {
			return true
		}
	}
	return false
}

// handleEvent applies a state_changed event and publishes the entity's new
// status when the database accepted it.
func (s *service) handleEvent(f frame) {
	if f.Event == nil || f.Event.EventType != eventStateChanged {
		return
	}
	data := f.Event.Data
	if s.ignored(data.EntityID) {
		return
	}
	if data.EntityID == "" || data.NewState == nil {
		s.logger.Debug("skipping event without new state", zap.String("entity_id", data.EntityID))
		return
	}
	s.logger.Debug("state changed", zap.String("entity_id", data.EntityID), zap.String("state", data.NewState.State))

	if !s.db.ApplyStateChange(data.EntityID, data.OldState, data.NewState) {
		return
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatus(data.EntityID); err != nil {
		s.logger.Warn("failed to publish status", zap.String("entity_id", data.EntityID), zap.Error(err))
	}
}
