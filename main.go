package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ikstema/mqtt-sbergate/cmd"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "mqtt-sbergate",
		Usage:   "bridge Home Assistant entities to Sber smart home over MQTT",
		Version: version,
		Action:  cmd.SberGateCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "hass-url",
				EnvVars: []string{"HASS_API_URL"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "hass-token",
				EnvVars: []string{"HASS_API_TOKEN"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "sber-broker",
				EnvVars: []string{"SBER_BROKER"},
				Value:   "ssl://mqtt-partners.iot.sberdevices.ru:8883",
			},
			&cli.StringFlag{
				Name:    "sber-login",
				EnvVars: []string{"SBER_LOGIN"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "sber-password",
				EnvVars: []string{"SBER_PASSWORD"},
				Value:   "",
			},
			&cli.BoolFlag{
				Name:    "insecure-skip-verify",
				EnvVars: []string{"INSECURE_SKIP_VERIFY"},
				Value:   false,
			},
			&cli.DurationFlag{
				Name:    "retry-delay",
				EnvVars: []string{"HASS_RETRY_DELAY"},
				Value:   5 * time.Second,
			},
			&cli.DurationFlag{
				Name:    "keepalive-interval",
				EnvVars: []string{"HASS_KEEPALIVE_INTERVAL"},
				Value:   30 * time.Second,
			},
			&cli.DurationFlag{
				Name:    "ws-ping-interval",
				EnvVars: []string{"HASS_WS_PING_INTERVAL"},
				Value:   0,
			},
			&cli.StringSliceFlag{
				Name:    "ignore-prefix",
				EnvVars: []string{"HASS_IGNORE_PREFIXES"},
			},
			&cli.DurationFlag{
				Name:    "publish-timeout",
				EnvVars: []string{"SBER_PUBLISH_TIMEOUT"},
				Value:   5 * time.Second,
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "enable",
				Usage:     "expose entities to Sber",
				ArgsUsage: "<entity_id>...",
				Action:    cmd.EnableCommand,
			},
			{
				Name:      "disable",
				Usage:     "stop exposing entities to Sber",
				ArgsUsage: "<entity_id>...",
				Action:    cmd.DisableCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
