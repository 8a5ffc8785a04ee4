package bridge

import (
	keybus "github.com/dsc2mqtt/dsc2mqtt"
)

// Command codes accepted on the set topic, optionally prefixed with a
// partition digit 1-8: "2S" arms partition 2 stay, bare "D" disarms
// the default partition.
const (
	codeArmStay  = 'S'
	codeArmAway  = 'A'
	codeArmNight = 'N'
	codeDisarm   = 'D'
	codeSilence  = 'T'
	codePanic    = 'P'
)

// Commander parses inbound command payloads into keypad writes, gated
// on the current partition state. Rejected and malformed payloads are
// dropped without touching the panel.
type Commander struct {
	panel            keybus.Panel
	accessCode       string
	defaultPartition int
}

func NewCommander(panel keybus.Panel, accessCode string, defaultPartition int) *Commander {
	return &Commander{
		panel:            panel,
		accessCode:       accessCode,
		defaultPartition: defaultPartition,
	}
}

// HandleMessage processes one payload from the set topic.
func (c *Commander) HandleMessage(topic string, payload []byte) {
	commandCounter.Inc()
	if len(payload) == 0 {
		return
	}

	partition := c.defaultPartition
	idx := 0
	if payload[0] >= '1' && payload[0] <= '8' {
		partition = int(payload[0] - '0')
		idx = 1
	}
	if len(payload) <= idx {
		return
	}
	code := payload[idx]
	if partition < 1 || partition > keybus.Partitions {
		return
	}

	var keys string
	switch code {
	case codeArmStay:
		keys = keybus.KeyArmStay
	case codeArmAway:
		keys = keybus.KeyArmAway
	case codeArmNight:
		keys = keybus.KeyArmNight
	case codeDisarm:
		keys = c.accessCode
	case codeSilence:
		keys = keybus.KeySilence
	case codePanic:
		keys = keybus.KeyPanic
	default:
		log.Debug("unknown command code", "payload", string(payload))
		return
	}

	st := c.panel.Status()
	st.Lock()
	part := &st.Partitions[partition-1]
	if part.Disabled {
		st.Unlock()
		return
	}
	if code != codePanic && !part.Ready {
		// Home Assistant applies the requested state optimistically;
		// re-arming the markers makes the next scan republish the
		// real state so the UI rolls back.
		part.ArmedChanged = true
		st.Changed = true
		st.Unlock()
		commandRejectCounter.Inc()
		log.Warn("partition not ready, command rejected",
			"partition", partition, "code", string(code))
		return
	}
	armed, exit, entry := part.Armed, part.ExitDelay, part.EntryDelay
	st.Unlock()

	accepted := false
	switch code {
	case codeArmStay, codeArmAway, codeArmNight, codeSilence:
		accepted = !armed && !exit
	case codeDisarm:
		accepted = armed || exit || entry
	case codePanic:
		accepted = true
	}
	if !accepted {
		log.Debug("command guard rejected",
			"partition", partition, "code", string(code),
			"armed", armed, "exit_delay", exit, "entry_delay", entry)
		return
	}

	if !c.panel.Ready() {
		commandRejectCounter.Inc()
		log.Warn("panel not ready for writes, command dropped",
			"partition", partition, "code", string(code))
		return
	}
	if err := c.panel.Write(partition, keys); err != nil {
		writeErrorCounter.Inc()
		log.Error("panel write failed",
			"partition", partition, "code", string(code), "err", err)
		return
	}
	writeCounter.Inc()
	log.Info("command forwarded", "partition", partition, "code", string(code))
}
