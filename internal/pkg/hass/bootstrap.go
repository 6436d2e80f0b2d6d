package hass

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

type stage int

const (
	stageSubscribe stage = iota
	stageAreas
	stageDevices
	stageEntities
	stageStates
)

// requestOrder is the order requests are sent in. Replies other than the
// subscription are processed in the same order whatever order they arrive in.
var requestOrder = []stage{stageSubscribe, stageAreas, stageDevices, stageEntities, stageStates}

func (st stage) requestType() string {
	switch st {
	case stageSubscribe:
		return "subscribe_events"
	case stageAreas:
		return "config/area_registry/list"
	case stageDevices:
		return "config/device_registry/list"
	case stageEntities:
		return "config/entity_registry/list"
	}
	return "get_states"
}

func (st stage) String() string {
	return st.requestType()
}

type bootstrap struct {
	stages  map[int]stage
	pending map[stage]json.RawMessage
	next    stage
}

func newBootstrap() *bootstrap {
	return &bootstrap{
		stages:  map[int]stage{},
		pending: map[stage]json.RawMessage{},
		next:    stageAreas,
	}
}

func (b *bootstrap) expect(id int, st stage) {
	b.stages[id] = st
}

func (b *bootstrap) done() bool {
	return b.next > stageStates
}

func (s *service) handleResult(f frame) {
	if f.Success != nil && !*f.Success {
		e := resultError{}
		if f.Error != nil {
			e = *f.Error
		}
		s.logger.Error("request failed", zap.Int("id", f.ID), zap.String("code", e.Code), zap.String("message", e.Message))
	}

	s.sendMu.Lock()
	b := s.bootstrap
	s.sendMu.Unlock()
	if b == nil {
		return
	}
	st, ok := b.stages[f.ID]
	if !ok {
		s.logger.Debug("result", zap.Int("id", f.ID))
		return
	}
	delete(b.stages, f.ID)
	if st == stageSubscribe {
		s.logger.Debug("subscribed to state changes")
		return
	}

	b.pending[st] = f.Result
	for !b.done() {
		data, ok := b.pending[b.next]
		if !ok {
			return
		}
		delete(b.pending, b.next)
		s.processStage(b.next, data)
		b.next++
	}
}

func decodeList[T any](st stage, data json.RawMessage) ([]T, error) {
	var out []T
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, st, err)
	}
	return out, nil
}

func (s *service) processStage(st stage, data json.RawMessage) {
	switch st {
	case stageAreas:
		areas, err := decodeList[model.AreaRecord](st, data)
		s.logIfDecodeErr(err)
		s.db.SetAreas(areas)
		s.logger.Info("received areas", zap.Int("count", len(areas)))

	case stageDevices:
		devices, err := decodeList[model.DeviceRecord](st, data)
		s.logIfDecodeErr(err)
		s.db.UpsertDevices(devices)
		s.logger.Info("received devices", zap.Int("count", len(devices)))

	case stageEntities:
		records, err := decodeList[model.EntityRecord](st, data)
		s.logIfDecodeErr(err)
		n := s.db.UpsertEntities(records)
		s.logger.Info("received entities", zap.Int("count", len(records)), zap.Int("typed", n))

	case stageStates:
		states, err := decodeList[model.HAState](st, data)
		s.logIfDecodeErr(err)
		s.db.LoadStates(states)
		s.db.SetReady()
		s.setState(SteadyState)
	}
}

func (s *service) logIfDecodeErr(err error) {
	if err != nil {
		s.logger.Warn("dropping malformed result", zap.Error(err))
	}
}
