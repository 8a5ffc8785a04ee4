package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var publishCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "mqtt",
	Name:        "publishes_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var publishErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "mqtt",
	Name:        "publish_errors_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var connectErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "mqtt",
	Name:        "connect_errors_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var connectedGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "mqtt",
	Name:        "connected",
	Help:        "",
	ConstLabels: map[string]string{},
})

var commandCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "commands",
	Name:        "received_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var commandRejectCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "commands",
	Name:        "rejected_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var writeCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "panel",
	Name:        "writes_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var writeErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "panel",
	Name:        "write_errors_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var overflowCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "dsc2mqtt",
	Subsystem:   "panel",
	Name:        "buffer_overflows_total",
	Help:        "",
	ConstLabels: map[string]string{},
})
