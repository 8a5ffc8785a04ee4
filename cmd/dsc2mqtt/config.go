package main

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	keybus "github.com/dsc2mqtt/dsc2mqtt"
)

type Config struct {
	PanelHost     string `env:"PANEL_HOST,notEmpty"`
	PanelPort     string `env:"PANEL_PORT"     envDefault:"4025"`
	PanelPassword string `env:"PANEL_PASSWORD,notEmpty"`
	AccessCode    string `env:"ACCESS_CODE,notEmpty"`

	Broker       string `env:"BROKER,notEmpty"`
	MQTTUsername string `env:"MQTT_USERNAME"`
	MQTTPassword string `env:"MQTT_PASSWORD"`
	ClientID     string `env:"CLIENT_ID"    envDefault:"dsc2mqtt"`
	TopicPrefix  string `env:"TOPIC_PREFIX" envDefault:"dsc"`

	DefaultPartition   int   `env:"DEFAULT_PARTITION" envDefault:"1"`
	DisabledPartitions []int `env:"DISABLED_PARTITIONS"`

	RetryInterval        time.Duration `env:"RETRY_INTERVAL" envDefault:"2s"`
	TickInterval         time.Duration `env:"TICK_INTERVAL"  envDefault:"250ms"`
	AvailabilityInterval time.Duration `env:"AVAILABILITY_INTERVAL"`

	Address string `env:"LISTEN" envDefault:":9101"`
}

func (c Config) validate() error {
	if c.DefaultPartition < 1 || c.DefaultPartition > keybus.Partitions {
		return fmt.Errorf("default partition out of range: %d", c.DefaultPartition)
	}
	for _, n := range c.DisabledPartitions {
		if n < 1 || n > keybus.Partitions {
			return fmt.Errorf("disabled partition out of range: %d", n)
		}
	}
	if c.disabled(c.DefaultPartition) {
		return fmt.Errorf("default partition %d is disabled", c.DefaultPartition)
	}
	return nil
}

func (c Config) disabled(n int) bool {
	return slices.Contains(c.DisabledPartitions, n)
}
