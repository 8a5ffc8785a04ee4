package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	logp "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	keybus "github.com/dsc2mqtt/dsc2mqtt"
	"github.com/dsc2mqtt/dsc2mqtt/bridge"
	"github.com/dsc2mqtt/dsc2mqtt/envisalink"
	"github.com/dsc2mqtt/dsc2mqtt/mqtt"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "dsc2mqtt",
})

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.Info(
		"dsc2mqtt",
		"version", version,
		"commit", commit,
		"date", date,
		"info", strings.Join([]string{
			"MQTT bridge for DSC PowerSeries alarm systems",
			"https://github.com/dsc2mqtt/dsc2mqtt",
		}, "\n"),
	)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(
			"could not parse env",
			"err",
			strings.TrimPrefix(strings.ReplaceAll(err.Error(), "; ", "\n"), "env: ")+"\n",
		)
	}
	if err := cfg.validate(); err != nil {
		log.Fatal("invalid configuration", "err", err)
	}

	macAddr, err := envisalink.MacAddress(cfg.PanelHost)
	if err != nil {
		log.Warn(
			"could not get the mac address, needs 'cap_net_raw+ep' capabilities",
			"err", err,
		)
	}
	log.Info(
		"found alarm panel",
		"host", cfg.PanelHost,
		"port", cfg.PanelPort,
		"mac", macAddr,
		"default_partition", cfg.DefaultPartition,
		"disabled_partitions", cfg.DisabledPartitions,
	)

	panel := envisalink.New(cfg.PanelHost, cfg.PanelPort, cfg.PanelPassword)
	for n := 1; n <= keybus.Partitions; n++ {
		if cfg.disabled(n) {
			panel.Status().SetDisabled(n, true)
		}
	}

	topics := bridge.Topics{Prefix: cfg.TopicPrefix}
	conn := mqtt.New(mqtt.Options{
		Broker:      cfg.Broker,
		ClientID:    cfg.ClientID,
		Username:    cfg.MQTTUsername,
		Password:    cfg.MQTTPassword,
		WillTopic:   topics.Available(),
		WillPayload: bridge.PayloadOffline,
		WillRetain:  true,
	})
	defer conn.Close()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c
		log.Info("stopping")
		signal.Stop(c)
		cancel()
	}()

	go func() {
		if err := panel.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("panel session loop ended", "err", err)
		}
	}()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Info("starting metrics server", "addr", cfg.Address)
		if err := http.ListenAndServe(cfg.Address, nil); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "err", err)
		}
	}()

	b := bridge.New(bridge.Options{
		Topics:               topics,
		Conn:                 conn,
		Panel:                panel,
		AccessCode:           cfg.AccessCode,
		DefaultPartition:     cfg.DefaultPartition,
		RetryInterval:        cfg.RetryInterval,
		TickInterval:         cfg.TickInterval,
		AvailabilityInterval: cfg.AvailabilityInterval,
	})
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("bridge stopped", "err", err)
	}

	if conn.Connected() {
		if err := conn.Publish(topics.Available(), bridge.PayloadOffline, true); err != nil {
			log.Warn("could not publish offline status", "err", err)
		}
	}
}
