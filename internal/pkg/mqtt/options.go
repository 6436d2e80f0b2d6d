package mqtt

import (
	"crypto/tls"
	"net/url"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/config"
)

const (
	connectTimeout        = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	disconnectQuiesce     = 250 // milliseconds
	keepAlive             = 60 * time.Second
	reconnectInterval     = 5 * time.Second
)

// buildClientOptions creates paho options for the Sber broker.
// Messages are delivered concurrently so that one slow handler never holds
// up the other topics.
func buildClientOptions(cfg *config.SberConfig, clientID string) *paho_mqtt.ClientOptions {
	opts := paho_mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	if cfg.Login != "" {
		opts.SetUsername(cfg.Login)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(reconnectInterval)
	opts.SetMaxReconnectInterval(reconnectInterval)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	if secure(cfg.Broker) {
		opts.SetTLSConfig(&tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		})
	}
	return opts
}

func secure(broker string) bool {
	u, err := url.Parse(broker)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "ssl", "tls", "mqtts", "tcps", "wss":
		return true
	}
	return false
}
