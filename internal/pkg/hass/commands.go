package hass

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
	ws "github.com/ikstema/mqtt-sbergate/pkg/sockets"
)

// CallService sends one call_service frame. Delivery is fire and forget.
func (s *service) CallService(call model.ServiceCall) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.conn == nil || !s.authenticated {
		return ErrNotConnected
	}
	id := s.nextID
	s.nextID++
	if err := s.sendLocked(callServiceRequest{ID: id, Type: typeCallService, ServiceCall: call}); err != nil {
		return err
	}
	s.logger.Info("called service",
		zap.Int("id", id),
		zap.String("service", call.Domain+"."+call.Service),
		zap.String("entity_id", call.Target.EntityID),
	)
	return nil
}

func (s *service) sendLocked(v any) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.Send(ws.Msg{Body: data})
}

func (s *service) ping() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.conn == nil || !s.authenticated {
		return ErrNotConnected
	}
	id := s.nextID
	s.nextID++
	return s.sendLocked(request{ID: id, Type: typePing})
}

// keepalive pings the server on KeepaliveInterval while conn is open.
func (s *service) keepalive(ctx context.Context, conn ws.Connection) {
	if s.cfg.KeepaliveInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.KeepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case <-ticker.C:
			if err := s.ping(); err != nil {
				s.logger.Debug("keepalive skipped", zap.Error(err))
			}
		}
	}
}
