package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	keybus "github.com/dsc2mqtt/dsc2mqtt"
)

func newTestCommander(panel *fakePanel) *Commander {
	return NewCommander(panel, "1234", 1)
}

func readyPanel() *fakePanel {
	panel := &fakePanel{status: keybus.NewStatus(), ready: true}
	for n := 1; n <= keybus.Partitions; n++ {
		panel.status.SetReady(n, true)
	}
	return panel
}

func TestArmStayTargetsPartition(t *testing.T) {
	panel := readyPanel()
	newTestCommander(panel).HandleMessage("alarm/set", []byte("2S"))
	require.Equal(t, []writeRecord{{2, keybus.KeyArmStay}}, panel.writes)
}

func TestArmStayRejectedWhenArmed(t *testing.T) {
	panel := readyPanel()
	panel.status.Partitions[1].Armed = true
	newTestCommander(panel).HandleMessage("alarm/set", []byte("2S"))
	require.Empty(t, panel.writes)
}

func TestArmRejectedDuringExitDelay(t *testing.T) {
	panel := readyPanel()
	panel.status.Partitions[0].ExitDelay = true
	c := newTestCommander(panel)
	c.HandleMessage("alarm/set", []byte("A"))
	c.HandleMessage("alarm/set", []byte("N"))
	require.Empty(t, panel.writes)
}

func TestDisarmDefaultPartition(t *testing.T) {
	for _, tt := range []struct {
		name     string
		mutate   func(p *keybus.Partition)
		accepted bool
	}{
		{"armed", func(p *keybus.Partition) { p.Armed = true }, true},
		{"exit delay", func(p *keybus.Partition) { p.ExitDelay = true }, true},
		{"entry delay", func(p *keybus.Partition) { p.EntryDelay = true }, true},
		{"idle", func(p *keybus.Partition) {}, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			panel := readyPanel()
			tt.mutate(&panel.status.Partitions[0])
			newTestCommander(panel).HandleMessage("alarm/set", []byte("D"))
			if tt.accepted {
				require.Equal(t, []writeRecord{{1, "1234"}}, panel.writes)
			} else {
				require.Empty(t, panel.writes)
			}
		})
	}
}

func TestArmCommands(t *testing.T) {
	panel := readyPanel()
	c := newTestCommander(panel)
	c.HandleMessage("alarm/set", []byte("3A"))
	c.HandleMessage("alarm/set", []byte("4N"))
	c.HandleMessage("alarm/set", []byte("5T"))
	require.Equal(t, []writeRecord{
		{3, keybus.KeyArmAway},
		{4, keybus.KeyArmNight},
		{5, keybus.KeySilence},
	}, panel.writes)
}

func TestNotReadyCompensation(t *testing.T) {
	panel := readyPanel()
	panel.status.SetReady(2, false)
	newTestCommander(panel).HandleMessage("alarm/set", []byte("2S"))

	require.Empty(t, panel.writes)
	st := panel.status
	st.Lock()
	defer st.Unlock()
	require.True(t, st.Partitions[1].ArmedChanged,
		"rejection must re-arm the armed marker for the UI rollback")
	require.True(t, st.Changed)
}

func TestPanicIgnoresReadiness(t *testing.T) {
	panel := readyPanel()
	panel.status.SetReady(1, false)
	panel.status.Partitions[0].Armed = true
	newTestCommander(panel).HandleMessage("alarm/set", []byte("P"))
	require.Equal(t, []writeRecord{{1, keybus.KeyPanic}}, panel.writes)
}

func TestMalformedPayloadsDropped(t *testing.T) {
	panel := readyPanel()
	c := newTestCommander(panel)
	c.HandleMessage("alarm/set", nil)
	c.HandleMessage("alarm/set", []byte(""))
	c.HandleMessage("alarm/set", []byte("2"))
	c.HandleMessage("alarm/set", []byte("X"))
	c.HandleMessage("alarm/set", []byte("9S")) // '9' is not a partition digit, so it is an unknown code
	require.Empty(t, panel.writes)
	st := panel.status
	st.Lock()
	defer st.Unlock()
	require.False(t, st.Changed, "malformed payloads leave no trace")
}

func TestWriterNotReadyDropsCommand(t *testing.T) {
	panel := readyPanel()
	panel.ready = false
	newTestCommander(panel).HandleMessage("alarm/set", []byte("2S"))
	require.Empty(t, panel.writes)
	st := panel.status
	st.Lock()
	defer st.Unlock()
	require.False(t, st.Partitions[1].ArmedChanged,
		"write-capability backpressure is not the partition rollback case")
}

func TestDisabledPartitionCommandDropped(t *testing.T) {
	panel := readyPanel()
	panel.status.SetDisabled(2, true)
	newTestCommander(panel).HandleMessage("alarm/set", []byte("2S"))
	require.Empty(t, panel.writes)
}
