package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/config"
)

var (
	ErrConnect        = errors.New("mqtt: unable to connect")
	ErrPublishTimeout = errors.New("mqtt: publish timed out")
)

// MessageHandler receives the topic and raw payload of a message. A returned
// error is logged.
type MessageHandler func(topic string, payload []byte) error

// client is the part of paho_mqtt.Client the service uses.
type client interface {
	Connect() paho_mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload any) paho_mqtt.Token
	Subscribe(topic string, qos byte, callback paho_mqtt.MessageHandler) paho_mqtt.Token
}

type service struct {
	client         client
	logger         *zap.Logger
	publishTimeout time.Duration

	mu            sync.Mutex
	subscriptions map[string]MessageHandler
}

func New(c client, publishTimeout time.Duration) *service {
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	return &service{
		client:         c,
		logger:         zap.L(),
		publishTimeout: publishTimeout,
		subscriptions:  map[string]MessageHandler{},
	}
}

// Dial builds a paho client for cfg. Subscriptions made through the returned
// service are restored every time the broker connection comes back.
func Dial(cfg *config.SberConfig) *service {
	clientID := "sbergate-" + uuid.NewString()
	opts := buildClientOptions(cfg, clientID)

	s := New(nil, cfg.PublishTimeout)
	opts.SetOnConnectHandler(func(paho_mqtt.Client) {
		s.logger.Info("connected to broker", zap.String("broker", cfg.Broker), zap.String("client_id", clientID))
		s.resubscribe()
	})
	opts.SetConnectionLostHandler(func(_ paho_mqtt.Client, err error) {
		s.logger.Warn("broker connection lost", zap.Error(err))
	})
	s.client = paho_mqtt.NewClient(opts)
	return s
}

func (s *service) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnect, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	return nil
}

func (s *service) Close() {
	s.client.Disconnect(disconnectQuiesce)
}

// Subscribe registers handler for topic and subscribes with QoS 0.
func (s *service) Subscribe(topic string, handler MessageHandler) error {
	s.mu.Lock()
	s.subscriptions[topic] = handler
	s.mu.Unlock()
	return s.subscribe(topic, handler)
}

func (s *service) subscribe(topic string, handler MessageHandler) error {
	token := s.client.Subscribe(topic, 0, s.wrapHandler(handler))
	if !token.WaitTimeout(s.publishTimeout) {
		return fmt.Errorf("%w: subscribe %s", ErrPublishTimeout, topic)
	}
	return token.Error()
}

func (s *service) resubscribe() {
	s.mu.Lock()
	subs := make(map[string]MessageHandler, len(s.subscriptions))
	for topic, h := range s.subscriptions {
		subs[topic] = h
	}
	s.mu.Unlock()

	for topic, h := range subs {
		if err := s.subscribe(topic, h); err != nil {
			s.logger.Warn("failed to resubscribe", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// Publish sends payload with QoS 0 and waits for the client to hand it off.
func (s *service) Publish(topic string, payload []byte) error {
	token := s.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(s.publishTimeout) {
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
	return token.Error()
}

func (s *service) wrapHandler(handler MessageHandler) paho_mqtt.MessageHandler {
	return func(_ paho_mqtt.Client, msg paho_mqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("handler panic recovered", zap.String("topic", msg.Topic()), zap.Any("panic", r))
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			s.logger.Warn("handler returned error", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	}
}
