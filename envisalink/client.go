// Package envisalink speaks the Envisalink TPI session to a DSC panel
// over TCP and keeps a keybus.Status in sync with what the panel
// reports. It is the panel-side collaborator of the bridge: the bridge
// never sees TPI frames, only the entity model and keypad writes.
package envisalink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/caarlos0/sync/cio"
	"github.com/cenkalti/backoff/v4"
	logp "github.com/charmbracelet/log"
	"github.com/j-keck/arping"

	keybus "github.com/dsc2mqtt/dsc2mqtt"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "envisalink",
})

const (
	dialTimeout  = 10 * time.Second
	readTimeout  = 90 * time.Second
	pollInterval = 30 * time.Second
	maxRetry     = 30 * time.Second
)

// Application commands.
const (
	cmdPoll         = "000"
	cmdStatusReport = "001"
	cmdLogin        = "005"
	cmdArmAway      = "030"
	cmdArmStay      = "031"
	cmdArmNoEntry   = "032"
	cmdDisarm       = "040"
	cmdPanic        = "060"
	cmdKeystroke    = "071"
	cmdSendCode     = "200"
)

// Panel replies.
const (
	respAck               = "500"
	respCmdError          = "501"
	respSystemError       = "502"
	respLogin             = "505"
	respZoneOpen          = "609"
	respZoneRestored      = "610"
	respFireKeyAlarm      = "621"
	respFireKeyRestore    = "622"
	respPartitionReady    = "650"
	respPartitionNotReady = "651"
	respPartitionArmed    = "652"
	respPartitionInAlarm  = "654"
	respPartitionDisarmed = "655"
	respExitDelay         = "656"
	respEntryDelay        = "657"
	respTroubleOn         = "840"
	respTroubleOff        = "841"
	respCodeRequired      = "900"
)

var errNotConnected = errors.New("envisalink: no panel session")

// Client implements keybus.Panel. Serve owns the session; Write and
// Ready may be called from the bridge loop at any time.
type Client struct {
	addr     string
	password string
	status   *keybus.Status

	mu         sync.Mutex
	conn       net.Conn
	loggedIn   bool
	pending    int
	codePrompt bool
}

func New(host, port, password string) *Client {
	return &Client{
		addr:     net.JoinHostPort(host, port),
		password: password,
		status:   keybus.NewStatus(),
	}
}

func (c *Client) Status() *keybus.Status { return c.status }

func MacAddress(ip string) (string, error) {
	hw, _, err := arping.Ping(net.ParseIP(ip))
	if err != nil {
		return "", fmt.Errorf("could not get the mac address: %w", err)
	}
	return hw.String(), nil
}

// Ready reports whether the session can take another keypad write. A
// command stays pending until the panel acks it, so callers get a
// rejection instead of a blocked loop.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.loggedIn && c.pending == 0
}

// Write maps a virtual keypad key onto the matching TPI command. Any
// other key string is treated as the access code: it answers a code
// prompt when one is outstanding, otherwise it disarms.
func (c *Client) Write(partition int, keys string) error {
	switch keys {
	case keybus.KeyArmStay:
		return c.send(cmdArmStay, strconv.Itoa(partition))
	case keybus.KeyArmAway:
		return c.send(cmdArmAway, strconv.Itoa(partition))
	case keybus.KeyArmNight:
		return c.send(cmdArmNoEntry, strconv.Itoa(partition))
	case keybus.KeySilence:
		return c.send(cmdKeystroke, fmt.Sprintf("%d#", partition))
	case keybus.KeyPanic:
		return c.send(cmdPanic, "3")
	default:
		c.mu.Lock()
		prompt := c.codePrompt
		c.codePrompt = false
		c.mu.Unlock()
		if prompt {
			return c.send(cmdSendCode, keys)
		}
		return c.send(cmdDisarm, fmt.Sprintf("%d%s", partition, keys))
	}
}

func (c *Client) send(cmd, data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.loggedIn {
		return errNotConnected
	}
	if _, err := c.conn.Write(encode(cmd, data)); err != nil {
		return fmt.Errorf("could not send %s: %w", cmd, err)
	}
	c.pending++
	return nil
}

// writeFrame is for session plumbing (login, polls); it does not count
// toward write readiness.
func (c *Client) writeFrame(cmd, data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	if _, err := c.conn.Write(encode(cmd, data)); err != nil {
		return fmt.Errorf("could not send %s: %w", cmd, err)
	}
	return nil
}

// Serve maintains the panel session until ctx is canceled,
// reconnecting with exponential backoff and recording link transitions
// in the entity model.
func (c *Client) Serve(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = maxRetry
	bo.MaxElapsedTime = 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.session(ctx)
		c.status.SetConnected(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		next := bo.NextBackOff()
		log.Error("panel session ended", "err", err, "retry_in", next)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	conn, err := net.DialTimeout("tcp", c.addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("could not connect: %w", err)
	}
	log.Info("panel session opened", "addr", c.addr)

	c.mu.Lock()
	c.conn = conn
	c.loggedIn = false
	c.pending = 0
	c.codePrompt = false
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.loggedIn = false
		c.mu.Unlock()
		_ = conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	done := make(chan struct{})
	defer close(done)
	go c.pollLoop(done)

	scanner := bufio.NewScanner(cio.TimeoutReader(conn, readTimeout))
	for scanner.Scan() {
		if err := c.handleLine(scanner.Text()); err != nil {
			log.Warn("bad panel frame", "err", err)
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			c.status.FlagOverflow()
		}
		return fmt.Errorf("panel read: %w", err)
	}
	return io.ErrUnexpectedEOF
}

// pollLoop keeps the session alive; the panel acks every poll, which
// also keeps the read deadline fed.
func (c *Client) pollLoop(done <-chan struct{}) {
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
	for {
		select {
		case <-done:
			return
		case <-tick.C:
			c.mu.Lock()
			loggedIn := c.loggedIn
			c.mu.Unlock()
			if !loggedIn {
				continue
			}
			if err := c.writeFrame(cmdPoll, ""); err != nil {
				log.Warn("poll failed", "err", err)
			}
		}
	}
}

func (c *Client) handleLine(line string) error {
	cmd, data, err := decode(line)
	if err != nil {
		return err
	}
	st := c.status
	switch cmd {
	case respAck:
		c.mu.Lock()
		if c.pending > 0 {
			c.pending--
		}
		c.mu.Unlock()
	case respCmdError:
		c.mu.Lock()
		if c.pending > 0 {
			c.pending--
		}
		c.mu.Unlock()
		log.Warn("panel rejected frame checksum")
	case respSystemError:
		log.Error("panel system error", "code", data)
	case respLogin:
		c.handleLogin(data)
	case respZoneOpen, respZoneRestored:
		zone, err := strconv.Atoi(data)
		if err != nil {
			return fmt.Errorf("bad zone %q: %w", data, err)
		}
		st.SetZone(zone, cmd == respZoneOpen)
	case respFireKeyAlarm, respFireKeyRestore:
		// the TPI reports the fire key panel-wide; attribute it to
		// partition 1
		st.SetFire(1, cmd == respFireKeyAlarm)
	case respPartitionReady, respPartitionNotReady:
		p, err := partitionOf(data)
		if err != nil {
			return err
		}
		st.SetReady(p, cmd == respPartitionReady)
	case respPartitionArmed:
		if len(data) < 2 {
			return fmt.Errorf("bad armed report %q", data)
		}
		p, err := partitionOf(data[:1])
		if err != nil {
			return err
		}
		mode := data[1]
		away := mode == '0' || mode == '2'
		stay := mode == '1' || mode == '3'
		noEntry := mode == '2' || mode == '3'
		st.SetArmed(p, true, away, stay, noEntry)
		st.SetExitDelay(p, false)
		st.SetEntryDelay(p, false)
	case respPartitionInAlarm:
		p, err := partitionOf(data)
		if err != nil {
			return err
		}
		st.SetAlarm(p, true)
	case respPartitionDisarmed:
		p, err := partitionOf(data)
		if err != nil {
			return err
		}
		st.SetArmed(p, false, false, false, false)
		st.SetAlarm(p, false)
		st.SetExitDelay(p, false)
		st.SetEntryDelay(p, false)
	case respExitDelay:
		p, err := partitionOf(data)
		if err != nil {
			return err
		}
		st.SetExitDelay(p, true)
	case respEntryDelay:
		p, err := partitionOf(data)
		if err != nil {
			return err
		}
		st.SetEntryDelay(p, true)
	case respTroubleOn, respTroubleOff:
		st.SetTrouble(cmd == respTroubleOn)
	case respCodeRequired:
		p := 1
		if len(data) > 0 && data[0] >= '1' && data[0] <= '8' {
			p = int(data[0] - '0')
		}
		c.mu.Lock()
		c.codePrompt = true
		c.mu.Unlock()
		st.SetAccessCodePrompt(p)
	default:
		log.Debug("unhandled panel message", "cmd", cmd, "data", data)
	}
	return nil
}

func (c *Client) handleLogin(data string) {
	switch data {
	case "3": // password request
		if err := c.writeFrame(cmdLogin, c.password); err != nil {
			log.Error("could not send password", "err", err)
		}
	case "1": // success
		c.mu.Lock()
		c.loggedIn = true
		c.mu.Unlock()
		log.Info("panel login accepted")
		c.status.SetConnected(true)
		if err := c.writeFrame(cmdStatusReport, ""); err != nil {
			log.Error("could not request status report", "err", err)
		}
	case "0": // bad password, the panel will drop the session
		log.Error("panel login rejected, check the password")
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.mu.Unlock()
	case "2":
		log.Warn("panel login timed out")
	default:
		log.Warn("unexpected login response", "data", data)
	}
}

func partitionOf(data string) (int, error) {
	if len(data) < 1 || data[0] < '1' || data[0] > '8' {
		return 0, fmt.Errorf("bad partition %q", data)
	}
	return int(data[0] - '0'), nil
}
