package sim800_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"i4.energy/across/at"
	"i4.energy/across/cellular"
	"i4.energy/across/cellular/sim800"
)

func newMockModem(t *testing.T) (*sim800.Modem, *cellular.MockEngine) {
	t.Helper()
	ctrl := gomock.NewController(t)
	engine := cellular.NewMockEngine(ctrl)
	return sim800.New(&cellular.Device{ID: 1, Chipset: sim800.Chipset, AT: engine}), engine
}

func TestScanLine(t *testing.T) {
	t.Parallel()

	m := sim800.New(&cellular.Device{})

	tests := []struct {
		line string
		want at.ResponseType
	}{
		{line: "+CIPRXGET: 1,0", want: at.TypeURC},
		{line: "+FTPGET: 1,3", want: at.TypeURC},
		{line: "+FTPGET: 1,", want: at.TypeURC},
		{line: "+PDP: DEACT", want: at.TypeURC},
		{line: "+SAPBR 1: DEACT", want: at.TypeURC},
		{line: "OK", want: at.TypeUnknown},
		{line: "ERROR", want: at.TypeUnknown},
		{line: "RING", want: at.TypeUnknown},
		{line: "+FTPGET: 2,1360", want: at.TypeUnknown},
		{line: "+FTPGET: 1", want: at.TypeUnknown},
		{line: "+pdp: deact", want: at.TypeUnknown},
		{line: "+SAPBR: 1,1,\"10.0.0.1\"", want: at.TypeUnknown},
		{line: "", want: at.TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			line := []byte(tt.line)
			assert.Equal(t, tt.want, m.ScanLine(line))
			assert.Equal(t, tt.line, string(line), "ScanLine must not modify the line")
		})
	}

	_, known := m.FTPGetStatus()
	assert.False(t, known, "classification must not touch adapter state")
}

func TestHandleURC(t *testing.T) {
	t.Parallel()

	t.Run("Status unknown before the first notification", func(t *testing.T) {
		t.Parallel()
		m := sim800.New(&cellular.Device{})
		_, known := m.FTPGetStatus()
		assert.False(t, known)
	})

	t.Run("Stores and overwrites the status", func(t *testing.T) {
		t.Parallel()
		m := sim800.New(&cellular.Device{})

		m.HandleURC([]byte("+FTPGET: 1,3"))
		status, known := m.FTPGetStatus()
		require.True(t, known)
		assert.Equal(t, 3, status)

		m.HandleURC([]byte("+FTPGET: 1,65"))
		status, _ = m.FTPGetStatus()
		assert.Equal(t, 65, status)

		m.HandleURC([]byte("+FTPGET: 1,0"))
		status, _ = m.FTPGetStatus()
		assert.Equal(t, 0, status)
	})

	t.Run("Lines without a status leave it unchanged", func(t *testing.T) {
		t.Parallel()
		m := sim800.New(&cellular.Device{})
		m.HandleURC([]byte("+FTPGET: 1,1"))

		for _, line := range []string{
			"+PDP: DEACT",
			"+SAPBR 1: DEACT",
			"+CIPRXGET: 1,0",
			"+FTPGET: 1,",
			"+FTPGET: 1,abc",
		} {
			m.HandleURC([]byte(line))
			status, known := m.FTPGetStatus()
			assert.True(t, known, line)
			assert.Equal(t, 1, status, line)
		}
	})

	t.Run("Malformed status before any valid one", func(t *testing.T) {
		t.Parallel()
		m := sim800.New(&cellular.Device{})
		m.HandleURC([]byte("+FTPGET: 1,x"))
		_, known := m.FTPGetStatus()
		assert.False(t, known)
	})
}

func TestAttach(t *testing.T) {
	t.Parallel()

	t.Run("Runs the init sequence in order", func(t *testing.T) {
		t.Parallel()
		m, engine := newMockModem(t)

		gomock.InOrder(
			engine.EXPECT().SetCallbacks(m),
			engine.EXPECT().SetTimeout(time.Second),
			engine.EXPECT().Command(gomock.Any(), at.CmdAt).Return("", nil),
			engine.EXPECT().Command(gomock.Any(), at.CmdEchoOff).Return("", nil),
			engine.EXPECT().CommandSimple(gomock.Any(), "%s", at.CmdFlowControlOff).Return(nil),
			engine.EXPECT().CommandSimple(gomock.Any(), "%s", at.CmdVerboseErrors).Return(nil),
		)

		require.NoError(t, m.Attach(context.Background()))
		assert.Equal(t, cellular.Attached, m.State())
	})

	t.Run("Probe and echo failures are ignored", func(t *testing.T) {
		t.Parallel()
		m, engine := newMockModem(t)

		gomock.InOrder(
			engine.EXPECT().SetCallbacks(m),
			engine.EXPECT().SetTimeout(time.Second),
			engine.EXPECT().Command(gomock.Any(), at.CmdAt).Return("", context.DeadlineExceeded),
			engine.EXPECT().Command(gomock.Any(), at.CmdEchoOff).Return("", at.ErrCommandFailed),
			engine.EXPECT().CommandSimple(gomock.Any(), "%s", at.CmdFlowControlOff).Return(nil),
			engine.EXPECT().CommandSimple(gomock.Any(), "%s", at.CmdVerboseErrors).Return(nil),
		)

		require.NoError(t, m.Attach(context.Background()))
	})

	t.Run("Aborts on a failing configuration command", func(t *testing.T) {
		t.Parallel()
		m, engine := newMockModem(t)
		cause := errors.New("write command \"AT+IFC=0,0\": broken pipe")

		gomock.InOrder(
			engine.EXPECT().SetCallbacks(m),
			engine.EXPECT().SetTimeout(time.Second),
			engine.EXPECT().Command(gomock.Any(), at.CmdAt).Return("", nil),
			engine.EXPECT().Command(gomock.Any(), at.CmdEchoOff).Return("", nil),
			engine.EXPECT().CommandSimple(gomock.Any(), "%s", at.CmdFlowControlOff).Return(cause),
		)

		err := m.Attach(context.Background())
		require.ErrorIs(t, err, cellular.ErrTransport)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, cellular.Attaching, m.State(), "adapter stays registered")
	})

	t.Run("Released device", func(t *testing.T) {
		t.Parallel()
		pool := cellular.NewPool()
		c, err := pool.Alloc(sim800.Chipset, at.NewEngine(at.NewTestTransport(nil), at.Config{}))
		require.NoError(t, err)
		require.NoError(t, pool.Free(c))

		require.ErrorIs(t, c.Attach(context.Background()), cellular.ErrReleased)
		require.ErrorIs(t, c.Detach(), cellular.ErrReleased)
	})
}

func TestDetach(t *testing.T) {
	t.Parallel()
	m, engine := newMockModem(t)

	engine.EXPECT().SetCallbacks(nil)

	require.NoError(t, m.Detach())
	assert.Equal(t, cellular.Unattached, m.State())
}
