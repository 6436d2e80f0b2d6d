package sber

import (
	"encoding/json"

	"go.uber.org/zap"
)

// PublishStatus publishes the states-list for ids, or for every enabled
// device when ids is empty.
func (s *service) PublishStatus(ids ...string) error {
	payload, err := s.db.StatesList(ids...)
	if err != nil {
		return err
	}
	return s.publish(upStatus, payload)
}

// PublishConfig publishes the devices-list for ids, or for every enabled
// device when ids is empty.
func (s *service) PublishConfig(ids ...string) error {
	payload, err := s.db.DevicesList(ids...)
	if err != nil {
		return err
	}
	return s.publish(upConfig, payload)
}

func (s *service) publish(suffix string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	topic := s.topic(suffix)
	if err := s.broker.Publish(topic, data); err != nil {
		return err
	}
	s.logger.Debug("published", zap.String("topic", topic), zap.Int("bytes", len(data)))
	return nil
}
