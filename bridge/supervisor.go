package bridge

import "time"

// Supervisor drives the broker connection: one connect attempt when
// the retry timer reaches zero, re-subscribe and an availability
// publish on every successful connect. The timer is advanced by the
// wall-clock delta between ticks and never goes below zero.
type Supervisor struct {
	conn          Conn
	topics        Topics
	handler       func(topic string, payload []byte)
	retryInterval time.Duration

	// availabilityInterval > 0 enables an advisory periodic
	// availability republish while connected.
	availabilityInterval time.Duration

	retryRemaining    time.Duration
	sinceAvailability time.Duration
	connected         bool
}

func NewSupervisor(
	conn Conn,
	topics Topics,
	retryInterval, availabilityInterval time.Duration,
	handler func(topic string, payload []byte),
) *Supervisor {
	return &Supervisor{
		conn:                 conn,
		topics:               topics,
		handler:              handler,
		retryInterval:        retryInterval,
		availabilityInterval: availabilityInterval,
	}
}

func (s *Supervisor) Connected() bool { return s.connected }

// Tick advances the timers by elapsed and services the connection.
func (s *Supervisor) Tick(elapsed time.Duration) {
	if s.retryRemaining > 0 {
		s.retryRemaining -= elapsed
		if s.retryRemaining < 0 {
			s.retryRemaining = 0
		}
	}

	if !s.conn.Connected() {
		if s.connected {
			s.connected = false
			connectedGauge.Set(0)
			log.Warn("broker connection lost")
		}
		if s.retryRemaining > 0 {
			return
		}
		if err := s.conn.Connect(); err != nil {
			s.retryRemaining = s.retryInterval
			connectErrorCounter.Inc()
			log.Error("could not connect to broker",
				"err", err, "retry_in", s.retryInterval)
			return
		}
		s.connected = true
		s.retryRemaining = 0
		s.sinceAvailability = 0
		connectedGauge.Set(1)
		log.Info("broker connected")
		if err := s.conn.Subscribe(s.topics.Set(), s.handler); err != nil {
			log.Error("could not subscribe", "topic", s.topics.Set(), "err", err)
		}
		if err := s.conn.Publish(s.topics.Available(), PayloadOnline, true); err != nil {
			log.Error("could not publish availability", "err", err)
		}
		return
	}

	if !s.connected {
		s.connected = true
		connectedGauge.Set(1)
	}

	if s.availabilityInterval > 0 {
		s.sinceAvailability += elapsed
		if s.sinceAvailability >= s.availabilityInterval {
			s.sinceAvailability = 0
			if err := s.conn.Publish(s.topics.Available(), PayloadOnline, true); err != nil {
				log.Error("could not publish availability", "err", err)
			}
		}
	}
}
