package mqtt

import "errors"

var (
	// ErrNotConnected is returned for operations on a dead session.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnect is returned when a connection attempt fails.
	ErrConnect = errors.New("mqtt: connection failed")

	// ErrPublish is returned when a publish is not acknowledged.
	ErrPublish = errors.New("mqtt: publish failed")

	// ErrSubscribe is returned when a subscription is not accepted.
	ErrSubscribe = errors.New("mqtt: subscribe failed")
)
