package utils

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWheelMap(t *testing.T) *CANMap {
	t.Helper()
	m, err := LoadCANMap(filepath.Join("..", "config", "can", "wheel_map.csv"))
	require.NoError(t, err)
	return m
}

func TestLoadWheelMap(t *testing.T) {
	m := loadWheelMap(t)
	assert.Equal(t, []string{"WHEEL_CMD_0", "WHEEL_CMD_1", "WHEEL_CMD_2"}, m.FrameNames())
	require.NoError(t, m.CheckWheelFrames("WHEEL_CMD_", 3))
	assert.Error(t, m.CheckWheelFrames("WHEEL_CMD_", 4))

	fd, err := m.FrameByID(0x201)
	require.NoError(t, err)
	assert.Equal(t, "WHEEL_CMD_1", fd.Name)
	assert.Equal(t, 4, fd.DLC)
	require.Len(t, fd.Signals, 2)
	assert.Equal(t, SignalLeftSpeed, fd.Signals[0].Name)
}

func TestEncodeWheelFrame(t *testing.T) {
	m := loadWheelMap(t)

	f, err := m.EncodeWheelFrame("WHEEL_CMD_", 2, 30, -23.25)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x202), f.ID)
	assert.Equal(t, uint8(4), f.Length)

	// 3000 = 0x0BB8, -2325 = 0xF6EB
	assert.Equal(t, []byte{0xB8, 0x0B, 0xEB, 0xF6}, f.Data[:4])

	vals, err := m.DecodeFrame(f.ID, f.Data[:f.Length])
	require.NoError(t, err)
	assert.InDelta(t, 30.0, vals[SignalLeftSpeed], 1e-9)
	assert.InDelta(t, -23.25, vals[SignalRightSpeed], 1e-9)
}

func TestEncodeClampsAndDefaults(t *testing.T) {
	m := loadWheelMap(t)

	payload, _, err := m.EncodeFrame("WHEEL_CMD_0", map[string]float64{SignalLeftSpeed: 500})
	require.NoError(t, err)
	vals, err := m.DecodeFrame(0x200, payload)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, vals[SignalLeftSpeed], 1e-9)
	assert.InDelta(t, 0.0, vals[SignalRightSpeed], 1e-9)

	_, _, err = m.EncodeFrame("WHEEL_CMD_9", nil)
	assert.Error(t, err)
}

func TestDecodeShortPayload(t *testing.T) {
	m := loadWheelMap(t)
	_, err := m.DecodeFrame(0x200, []byte{1, 2})
	assert.Error(t, err)
	_, err = m.DecodeFrame(0x7FF, []byte{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestParseCANMapErrors(t *testing.T) {
	header := "direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default\n"
	cases := map[string]string{
		"missing column": "frame_id,frame_name\n0x1,A\n",
		"bad id":         header + "tx,zz,A,10,2,s,0,8,little,false,1,0,0,0,0\n",
		"bad number":     header + "tx,0x1,A,ten,2,s,0,8,little,false,1,0,0,0,0\n",
		"big endian":     header + "tx,0x1,A,10,2,s,0,8,big,false,1,0,0,0,0\n",
		"overflow":       header + "tx,0x1,A,10,1,s,4,8,little,false,1,0,0,0,0\n",
		"zero factor":    header + "tx,0x1,A,10,2,s,0,8,little,false,0,0,0,0,0\n",
		"dlc mismatch":   header + "tx,0x1,A,10,2,s,0,8,little,false,1,0,0,0,0\ntx,0x1,A,10,3,t,8,8,little,false,1,0,0,0,0\n",
	}
	for name, doc := range cases {
		_, err := ParseCANMap(strings.NewReader(doc))
		assert.Error(t, err, name)
	}
}

func TestBits(t *testing.T) {
	p := setBits(0, 4, 8, 0xAB)
	assert.Equal(t, uint64(0xAB0), p)
	assert.Equal(t, uint64(0xAB), getBits(p, 4, 8))
	assert.Equal(t, int64(-1), toSigned(0xFF, 8, true))
	assert.Equal(t, int64(255), toSigned(0xFF, 8, false))
	assert.Equal(t, int64(127), clampRaw(1000, 8, true))
	assert.Equal(t, int64(-128), clampRaw(-1000, 8, true))
	assert.Equal(t, int64(0), clampRaw(-5, 8, false))
}

func TestLogCANWriterCounts(t *testing.T) {
	m := loadWheelMap(t)
	w, err := OpenCANWriter(context.Background(), "log", NewNopLogger())
	require.NoError(t, err)
	lw, ok := w.(*LogCANWriter)
	require.True(t, ok)

	f, err := m.EncodeWheelFrame("WHEEL_CMD_", 0, 10, 10)
	require.NoError(t, err)
	require.NoError(t, lw.WriteFrame(context.Background(), f))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, lw.WriteFrame(ctx, f), context.Canceled)

	assert.Equal(t, BusStats{Sent: 1, Failed: 1}, lw.Stats())
	assert.NoError(t, lw.Close())
}
