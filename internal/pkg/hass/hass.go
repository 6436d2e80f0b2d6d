package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/config"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
	ws "github.com/ikstema/mqtt-sbergate/pkg/sockets"
)

var (
	ErrAuthInvalid  = errors.New("hass: authentication rejected")
	ErrNotConnected = errors.New("hass: not connected")
	ErrDecode       = errors.New("hass: malformed frame")
)

// DefaultIgnorePrefixes lists high churn entities whose events are dropped.
var DefaultIgnorePrefixes = []string{"sun.sun", "device_tracker.", "person."}

type database interface {
	SetAreas(areas []model.AreaRecord)
	UpsertDevices(devices []model.DeviceRecord)
	UpsertEntities(records []model.EntityRecord) int
	LoadStates(states []model.HAState)
	SetReady()
	ApplyStateChange(entityID string, oldState, newState *model.HAState) bool
}

type publisher interface {
	PublishStatus(ids ...string) error
}

type service struct {
	cfg       *config.HassConfig
	db        database
	publisher publisher
	logger    *zap.Logger
	newConn   func(opts ...func(*ws.Conn)) ws.Connection
	state     atomic.Int32

	// sendMu keeps id assignment and the write of a frame atomic.
	sendMu        sync.Mutex
	conn          ws.Connection
	nextID        int
	authenticated bool

	// bootstrap is only touched from the read loop.
	bootstrap  *bootstrap
	authFailed chan struct{}
}

func New(cfg *config.HassConfig, db database) *service {
	return &service{
		cfg:     cfg,
		db:      db,
		logger:  zap.L(),
		newConn: ws.New,
	}
}

// SetPublisher registers the sink for single entity status updates.
func (s *service) SetPublisher(p publisher) {
	s.publisher = p
}

func (s *service) State() State {
	return State(s.state.Load())
}

func (s *service) setState(st State) {
	if State(s.state.Swap(int32(st))) != st {
		s.logger.Debug("upstream state", zap.Stringer("state", st))
	}
}

// websocketURL turns the configured API url into its websocket endpoint.
func websocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/api/websocket") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/api/websocket"
	}
	return u.String(), nil
}

// Run keeps a connection open until ctx is done, reconnecting after
// RetryDelay whenever it drops. A rejected token stops the loop for good.
func (s *service) Run(ctx context.Context) error {
	u, err := websocketURL(s.cfg.URL)
	if err != nil {
		return err
	}
	for {
		err := s.connectOnce(ctx, u)
		s.setState(Disconnected)
		switch {
		case errors.Is(err, ErrAuthInvalid):
			s.logger.Error("upstream rejected the access token, giving up", zap.Bool("critical", true), zap.Error(err))
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			s.logger.Warn("upstream connection failed", zap.String("url", u), zap.Error(err))
		default:
			s.logger.Info("upstream connection lost", zap.String("url", u))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RetryDelay):
		}
	}
}

func (s *service) connectOnce(ctx context.Context, u string) error {
	s.setState(Connecting)
	s.authFailed = make(chan struct{}, 1)

	conn := s.newConn(
		ws.OnMessage(s.onMessage),
		ws.OnError(s.onError),
		ws.InsecureSkipVerify(s.cfg.InsecureSkipVerify),
		ws.WithPingInterval(s.cfg.PingInterval),
	)
	s.sendMu.Lock()
	s.conn = conn
	s.authenticated = false
	s.bootstrap = nil
	s.sendMu.Unlock()
	defer func() {
		s.sendMu.Lock()
		s.conn = nil
		s.authenticated = false
		s.sendMu.Unlock()
	}()

	s.logger.Debug("connecting to", zap.String("url", u))
	if err := conn.Dial(ctx, u, ""); err != nil {
		return err
	}
	s.setState(AuthPending)
	s.logger.Info("connected to upstream", zap.String("url", u))

	go s.keepalive(ctx, conn)

	select {
	case <-conn.Done():
		return nil
	case <-s.authFailed:
		_ = conn.Close()
		return ErrAuthInvalid
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

func (s *service) onError(err error) {
	s.logger.Debug("websocket error", zap.Error(err))
}

func (s *service) onMessage(data []byte, c ws.Connection) {
	f := frame{}
	if err := json.Unmarshal(data, &f); err != nil {
		s.logger.Warn("dropping frame", zap.Error(fmt.Errorf("%w: %w", ErrDecode, err)))
		return
	}

	switch f.Type {
	case typeAuthRequired:
		s.handleAuthRequired(c)
	case typeAuthOK:
		s.handleAuthOK(f)
	case typeAuthInvalid:
		s.handleAuthInvalid(f)
	case typeResult:
		s.handleResult(f)
	case typeEvent:
		s.handleEvent(f)
	case typePong:
	default:
		s.logger.Debug("unhandled frame", zap.String("type", f.Type))
	}
}
