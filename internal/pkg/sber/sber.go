package sber

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/config"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/entity"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/mqtt"
)

var ErrDecode = errors.New("sber: malformed payload")

const (
	topicPrefix       = "sberdevices/v1"
	GlobalConfigTopic = topicPrefix + "/__config"

	downCommands      = "down/commands"
	downStatusRequest = "down/status_request"
	downConfigRequest = "down/config_request"
	downErrors        = "down/errors"
	downChangeGroup   = "down/change_group_device_request"
	downRename        = "down/rename_device_request"
	upConfig          = "up/config"
	upStatus          = "up/status"
)

type broker interface {
	Subscribe(topic string, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte) error
}

type database interface {
	WaitReady(ctx context.Context) error
	DevicesList(ids ...string) (model.DevicesPayload, error)
	StatesList(ids ...string) (model.StatesPayload, error)
	ProcessCommand(id string, states []model.State) (entity.CommandResult, error)
	RedefinePlacement(id, home, room string) error
	Rename(id, name string) error
}

type serviceCaller interface {
	CallService(call model.ServiceCall) error
}

type optionStore interface {
	Set(key, value string) (bool, error)
}

type service struct {
	cfg     *config.SberConfig
	broker  broker
	db      database
	hass    serviceCaller
	options optionStore
	logger  *zap.Logger
	root    string

	// ctx bounds handlers that wait on readiness. Set by Start.
	ctx context.Context
}

func New(cfg *config.SberConfig, b broker, db database, hass serviceCaller, options optionStore) *service {
	return &service{
		cfg:     cfg,
		broker:  b,
		db:      db,
		hass:    hass,
		options: options,
		logger:  zap.L(),
		root:    topicPrefix + "/" + cfg.Login,
		ctx:     context.Background(),
	}
}

func (s *service) topic(suffix string) string {
	return s.root + "/" + suffix
}

// Start subscribes to the tenant topics and the shared config topic.
// Handlers stop waiting for readiness once ctx is done.
func (s *service) Start(ctx context.Context) error {
	s.ctx = ctx
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{s.topic(downCommands), s.handleCommands},
		{s.topic(downStatusRequest), s.handleStatusRequest},
		{s.topic(downConfigRequest), s.handleConfigRequest},
		{s.topic(downErrors), s.handleErrors},
		{s.topic(downChangeGroup), s.handleChangeGroup},
		{s.topic(downRename), s.handleRename},
		{GlobalConfigTopic, s.handleGlobalConfig},
	}
	for _, sub := range subs {
		if err := s.broker.Subscribe(sub.topic, sub.handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", sub.topic, err)
		}
		s.logger.Debug("subscribed", zap.String("topic", sub.topic))
	}
	return nil
}
