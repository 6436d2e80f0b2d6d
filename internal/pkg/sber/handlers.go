package sber

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/config"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/registry"
)

func decode(topic string, payload []byte, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, topic, err)
	}
	return nil
}

// handleCommands translates each device's requested states into upstream
// service calls.
func (s *service) handleCommands(topic string, payload []byte) error {
	cmd := model.StatesPayload{}
	if err := decode(topic, payload, &cmd); err != nil {
		return err
	}

	for _, id := range slices.Sorted(maps.Keys(cmd.Devices)) {
		res, err := s.db.ProcessCommand(id, cmd.Devices[id].States)
		if errors.Is(err, registry.ErrUnknownEntity) {
			s.logger.Warn("command for unknown device", zap.String("id", id))
			continue
		}
		if err != nil {
			s.logger.Warn("failed to process command", zap.String("id", id), zap.Error(err))
			continue
		}

		for _, call := range res.Calls {
			if err := s.hass.CallService(call); err != nil {
				s.logger.Warn("failed to call service",
					zap.String("id", id),
					zap.String("service", call.Domain+"."+call.Service),
					zap.Error(err),
				)
			}
		}
		if res.StateChanged {
			if err := s.PublishStatus(id); err != nil {
				s.logger.Warn("failed to publish status", zap.String("id", id), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *service) handleStatusRequest(topic string, payload []byte) error {
	req := model.StatusRequest{}
	if err := decode(topic, payload, &req); err != nil {
		return err
	}
	if req.All() {
		return s.PublishStatus()
	}
	return s.PublishStatus(req.Devices...)
}

// handleConfigRequest blocks until bootstrap has finished.
func (s *service) handleConfigRequest(string, []byte) error {
	if err := s.db.WaitReady(s.ctx); err != nil {
		return err
	}
	return s.PublishConfig()
}

func (s *service) handleErrors(topic string, payload []byte) error {
	s.logger.Warn("sber reported an error", zap.String("topic", topic), zap.ByteString("payload", payload))
	return nil
}

func (s *service) handleGlobalConfig(topic string, payload []byte) error {
	cfg := model.GlobalConfig{}
	if err := decode(topic, payload, &cfg); err != nil {
		return err
	}
	if cfg.HTTPAPIEndpoint == "" {
		return nil
	}
	changed, err := s.options.Set(config.KeyHTTPAPIEndpoint, cfg.HTTPAPIEndpoint)
	if err != nil {
		return err
	}
	if changed {
		s.logger.Info("http api endpoint updated", zap.String("endpoint", cfg.HTTPAPIEndpoint))
	}
	return nil
}

func (s *service) handleChangeGroup(topic string, payload []byte) error {
	req := model.ChangeGroupRequest{}
	if err := decode(topic, payload, &req); err != nil {
		return err
	}
	if req.DeviceID == "" {
		return fmt.Errorf("%w: %s: missing device_id", ErrDecode, topic)
	}
	if err := s.db.RedefinePlacement(req.DeviceID, req.Home, req.Room); err != nil {
		return err
	}
	s.logger.Info("placement changed", zap.String("id", req.DeviceID), zap.String("home", req.Home), zap.String("room", req.Room))
	return s.PublishConfig(req.DeviceID)
}

func (s *service) handleRename(topic string, payload []byte) error {
	req := model.RenameRequest{}
	if err := decode(topic, payload, &req); err != nil {
		return err
	}
	if req.DeviceID == "" {
		return fmt.Errorf("%w: %s: missing device_id", ErrDecode, topic)
	}
	if err := s.db.Rename(req.DeviceID, req.NewName); err != nil {
		return err
	}
	s.logger.Info("device renamed", zap.String("id", req.DeviceID), zap.String("name", req.NewName))
	return s.PublishConfig(req.DeviceID)
}
