package bridge

// Conn is the message-bus transport the bridge drives. Publish is a
// single best-effort attempt: a returned error leaves the caller's
// changed-marker set so the payload is retried on a later scan.
type Conn interface {
	Connect() error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Publish(topic, payload string, retain bool) error
	Connected() bool
}

// Payloads for the partition state topic, matching the Home Assistant
// MQTT alarm panel contract.
const (
	payloadDisarmed   = "disarmed"
	payloadArmedHome  = "armed_home"
	payloadArmedAway  = "armed_away"
	payloadArmedNight = "armed_night"
	payloadPending    = "pending"
	payloadTriggered  = "triggered"

	payloadOn  = "1"
	payloadOff = "0"
)

// Availability payloads, exported so main can configure the broker
// last-will with the offline value.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)
