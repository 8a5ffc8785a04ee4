package envisalink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	// '0'+'0'+'0' = 144 = 0x90
	require.Equal(t, "90", checksum("000"))
	// '5'+'0'+'5'+'3' = 0xCD
	require.Equal(t, "CD", checksum("5053"))
}

func TestEncode(t *testing.T) {
	require.Equal(t, []byte("00090\r\n"), encode(cmdPoll, ""))
	require.Equal(t, []byte("5053CD\r\n"), encode(respLogin, "3"))
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, tt := range []struct{ cmd, data string }{
		{cmdPoll, ""},
		{respZoneOpen, "009"},
		{respPartitionArmed, "12"},
		{cmdDisarm, "1123456"},
	} {
		line := string(encode(tt.cmd, tt.data))
		cmd, data, err := decode(line[:len(line)-1]) // scanner strips \n
		require.NoError(t, err)
		require.Equal(t, tt.cmd, cmd)
		require.Equal(t, tt.data, data)
	}
}

func TestDecodeLowercaseChecksum(t *testing.T) {
	cmd, data, err := decode("5053cd\r")
	require.NoError(t, err)
	require.Equal(t, respLogin, cmd)
	require.Equal(t, "3", data)
}

func TestDecodeRejects(t *testing.T) {
	_, _, err := decode("00091\r")
	require.Error(t, err)
	_, _, err = decode("000")
	require.Error(t, err)
}
