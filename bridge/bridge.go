// Package bridge synchronizes a security panel entity model with an
// MQTT broker: it scans changed-markers into topic publishes with
// at-least-once delivery, parses inbound commands into guarded keypad
// writes, and supervises the broker connection.
package bridge

import (
	"context"
	"os"
	"time"

	logp "github.com/charmbracelet/log"

	keybus "github.com/dsc2mqtt/dsc2mqtt"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "bridge",
})

const (
	defaultRetryInterval = 2 * time.Second
	defaultTickInterval  = 250 * time.Millisecond
	inboundQueueSize     = 64
)

type Options struct {
	Topics Topics
	Conn   Conn
	Panel  keybus.Panel

	AccessCode       string
	DefaultPartition int

	// RetryInterval is the broker reconnect interval (default 2s).
	RetryInterval time.Duration
	// TickInterval is the scan loop period (default 250ms).
	TickInterval time.Duration
	// AvailabilityInterval enables the advisory availability
	// heartbeat when > 0.
	AvailabilityInterval time.Duration
}

type message struct {
	topic   string
	payload []byte
}

// Bridge owns the scan loop described in the package comment. One
// logical thread of control touches the entity model per tick; inbound
// bus messages are queued and drained inside the loop.
type Bridge struct {
	panel      keybus.Panel
	accessCode string
	publisher  *Publisher
	commander  *Commander
	supervisor *Supervisor
	tick       time.Duration
	inbound    chan message
}

func New(opts Options) *Bridge {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	b := &Bridge{
		panel:      opts.Panel,
		accessCode: opts.AccessCode,
		tick:       opts.TickInterval,
		inbound:    make(chan message, inboundQueueSize),
	}
	b.publisher = NewPublisher(opts.Topics, opts.Conn)
	b.commander = NewCommander(opts.Panel, opts.AccessCode, opts.DefaultPartition)
	b.supervisor = NewSupervisor(
		opts.Conn, opts.Topics,
		opts.RetryInterval, opts.AvailabilityInterval,
		b.enqueue,
	)
	return b
}

// enqueue runs on the transport's delivery goroutine; the command is
// parsed later, inside the loop, against a settled model snapshot.
func (b *Bridge) enqueue(topic string, payload []byte) {
	msg := message{topic: topic, payload: append([]byte(nil), payload...)}
	select {
	case b.inbound <- msg:
	default:
		commandRejectCounter.Inc()
		log.Warn("inbound queue full, command dropped", "topic", topic)
	}
}

// Run drives the scan loop until ctx is canceled. Cancellation is
// observed only between ticks; a tick always completes.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.tick)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			b.step(now.Sub(last))
			last = now
		}
	}
}

// step is one loop iteration: service the connection, answer a pending
// access code prompt, surface decoder overruns, scan markers, drain
// inbound commands.
func (b *Bridge) step(elapsed time.Duration) {
	b.supervisor.Tick(elapsed)

	st := b.panel.Status()
	st.Lock()

	if st.AccessCodePrompt && b.panel.Ready() {
		st.AccessCodePrompt = false
		partition := st.PromptPartition
		st.Unlock()
		if err := b.panel.Write(partition, b.accessCode); err != nil {
			writeErrorCounter.Inc()
			log.Error("could not answer access code prompt",
				"partition", partition, "err", err)
		}
		st.Lock()
	}

	if st.BufferOverflow {
		st.BufferOverflow = false
		overflowCounter.Inc()
		log.Warn("panel buffer overflow, status for the interval lost")
	}

	if st.Changed && b.supervisor.Connected() {
		st.Changed = false
		b.publisher.PublishChanges(st)
		// failed publishes leave markers set; keep scanning until
		// every one has been delivered
		if st.Pending() {
			st.Changed = true
		}
	}
	st.Unlock()

	for {
		select {
		case msg := <-b.inbound:
			b.commander.HandleMessage(msg.topic, msg.payload)
		default:
			return
		}
	}
}
