package bridge

import (
	keybus "github.com/dsc2mqtt/dsc2mqtt"
)

// Publisher turns changed-markers in the entity model into topic
// publishes. Markers are cleared only after the matching publish
// succeeded; a failed publish leaves the marker set and the same
// payload is retried verbatim on the next scan.
type Publisher struct {
	topics Topics
	conn   Conn
}

func NewPublisher(topics Topics, conn Conn) *Publisher {
	return &Publisher{topics: topics, conn: conn}
}

// PublishChanges runs one scan pass over the entity model. The caller
// must hold the status lock.
func (p *Publisher) PublishChanges(st *keybus.Status) {
	p.publishTrouble(st)
	for i := range st.Partitions {
		p.publishPartition(i+1, &st.Partitions[i])
	}
	p.publishGroup(st.OpenZones, &st.ZonesChanged, p.topics.Zone)
	p.publishGroup(st.Outputs, &st.OutputsChanged, p.topics.PGM)
	p.publishLink(st)
}

func (p *Publisher) send(topic, payload string, retain bool) bool {
	if err := p.conn.Publish(topic, payload, retain); err != nil {
		publishErrorCounter.Inc()
		log.Error("publish failed", "topic", topic, "err", err)
		return false
	}
	publishCounter.Inc()
	log.Debug("publish", "topic", topic, "payload", payload, "retain", retain)
	return true
}

// publishPartition works through the partition's publish dimensions in
// precedence order. Each dimension publishes at most once per scan and
// clears its own marker independently, so a transient failure on one
// dimension never re-publishes the others.
func (p *Publisher) publishPartition(n int, part *keybus.Partition) {
	if part.Disabled {
		return
	}
	topic := p.topics.Partition(n)

	// armed-state dimension
	armedPublished := false
	if part.ArmedChanged {
		sent := true
		if part.Armed {
			switch {
			case (part.ArmedAway || part.ArmedStay) && part.NoEntryDelay:
				sent = p.send(topic, payloadArmedNight, true)
				armedPublished = sent
			case part.ArmedAway:
				sent = p.send(topic, payloadArmedAway, true)
				armedPublished = sent
			case part.ArmedStay:
				sent = p.send(topic, payloadArmedHome, true)
				armedPublished = sent
			}
		} else {
			sent = p.send(topic, payloadDisarmed, true)
			armedPublished = sent
		}
		if sent {
			part.ArmedChanged = false
		}
	}

	// exit-delay dimension; the armed case is already covered above
	if part.ExitDelayChanged {
		sent := true
		if part.ExitDelay {
			sent = p.send(topic, payloadPending, true)
		} else if !part.Armed {
			sent = p.send(topic, payloadDisarmed, true)
		}
		if sent {
			part.ExitDelayChanged = false
		}
	}

	// alarm dimension; the restore-after-disarm case publishes
	// "disarmed" only when the armed dimension did not already
	if part.AlarmChanged {
		sent := true
		if part.Alarm {
			sent = p.send(topic, payloadTriggered, true)
		} else if !armedPublished {
			sent = p.send(topic, payloadDisarmed, true)
		}
		if sent {
			part.AlarmChanged = false
		}
	}

	// fire dimension, its own topic, never retained
	if part.FireChanged {
		payload := payloadOff
		if part.Fire {
			payload = payloadOn
		}
		if p.send(p.topics.Fire(n), payload, false) {
			part.FireChanged = false
		}
	}
}

// publishGroup sweeps a bitset bank by bank. The summary flag is
// cleared only when every individual publish in the sweep succeeded;
// otherwise a later scan re-sweeps, harmlessly skipping bits whose
// markers were already cleared.
func (p *Publisher) publishGroup(set *keybus.Bitset, summary *bool, topic func(int) string) {
	if !*summary {
		return
	}
	ok := true
	set.EachChanged(func(n int, on bool) {
		payload := payloadOff
		if on {
			payload = payloadOn
		}
		if p.send(topic(n), payload, true) {
			set.ClearChanged(n)
		} else {
			ok = false
		}
	})
	if ok {
		*summary = false
	}
}

func (p *Publisher) publishTrouble(st *keybus.Status) {
	if !st.TroubleChanged {
		return
	}
	payload := payloadOff
	if st.Trouble {
		payload = payloadOn
	}
	if p.send(p.topics.Trouble(), payload, true) {
		st.TroubleChanged = false
	}
}

func (p *Publisher) publishLink(st *keybus.Status) {
	if !st.ConnectedChanged {
		return
	}
	payload := PayloadOffline
	if st.Connected {
		payload = PayloadOnline
	}
	if p.send(p.topics.Available(), payload, true) {
		st.ConnectedChanged = false
	}
}
