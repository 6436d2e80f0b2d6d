package hass

import (
	"encoding/json"

	"go.uber.org/zap"

	ws "github.com/ikstema/mqtt-sbergate/pkg/sockets"
)

// handleAuthRequired answers the server greeting with the access token.
func (s *service) handleAuthRequired(c ws.Connection) {
	data, err := json.Marshal(authRequest{Type: typeAuth, AccessToken: s.cfg.Token})
	if err != nil {
		s.logger.Error("failed to encode auth", zap.Error(err))
		return
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := c.Send(ws.Msg{Body: data}); err != nil {
		s.logger.Warn("failed to send auth", zap.Error(err))
		return
	}
	s.logger.Debug("sent msg", zap.String("query_stage", typeAuth))
}

// handleAuthOK restarts the id counter and issues the bootstrap requests.
func (s *service) handleAuthOK(f frame) {
	s.logger.Info("authenticated", zap.String("ha_version", f.HAVersion))
	s.setState(Syncing)

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	s.authenticated = true
	s.nextID = 1
	s.bootstrap = newBootstrap()
	for _, st := range requestOrder {
		id := s.nextID
		s.nextID++
		s.bootstrap.expect(id, st)
		req := request{ID: id, Type: st.requestType()}
		if st == stageSubscribe {
			req.EventType = eventStateChanged
		}
		if err := s.sendLocked(req); err != nil {
			s.logger.Warn("failed to send bootstrap request", zap.Stringer("stage", st), zap.Error(err))
			return
		}
		s.logger.Debug("sent msg", zap.String("query_stage", req.Type), zap.Int("id", id))
	}
}

// handleAuthInvalid is terminal for the whole client.
func (s *service) handleAuthInvalid(f frame) {
	s.logger.Error("auth_invalid", zap.String("message", f.Message), zap.Bool("critical", true))
	select {
	case s.authFailed <- struct{}{}:
	default:
	}
}
