package action

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.helics.dev/corehub/internal/ident"
	"go.helics.dev/corehub/internal/message"
)

func TestCodePriorityBands(t *testing.T) {
	require.False(t, CmdTick.IsPriority(), "CMD_TICK travels in the normal band")
	require.True(t, CmdNewRoute.IsPriority())
	require.False(t, CmdMessage.IsPriority())
	require.False(t, CmdQuery.IsPriority())
}

func TestCodeStringKnownAndUnknown(t *testing.T) {
	require.Equal(t, "CMD_MESSAGE", CmdMessage.String())
	require.Contains(t, Code(9999).String(), "CMD_UNKNOWN")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Message{
		Action:       CmdMessage,
		SourceID:     ident.NewFederateID(7),
		SourceHandle: ident.NewInterfaceHandle(3),
		DestID:       ident.NewFederateID(9),
		DestHandle:   ident.NewInterfaceHandle(1),
		MessageID:    message.ID(55),
		Flags:        FlagIsClone,
		Time:         2.5,
		Name:         "port1",
		Payload:      []byte("hello"),
		ExtraData:    []byte{1, 2, 3},
	}

	frame, err := Encode(m)
	require.NoError(t, err)

	out, err := ReadFrom(bytes.NewReader(frame))
	require.NoError(t, err)
	require.Equal(t, m.Action, out.Action)
	require.Equal(t, m.SourceID, out.SourceID)
	require.Equal(t, m.SourceHandle, out.SourceHandle)
	require.Equal(t, m.DestID, out.DestID)
	require.Equal(t, m.DestHandle, out.DestHandle)
	require.Equal(t, m.MessageID, out.MessageID)
	require.Equal(t, m.Flags, out.Flags)
	require.Equal(t, m.Time, out.Time)
	require.Equal(t, m.Name, out.Name)
	require.Equal(t, m.Payload, out.Payload)
	require.Equal(t, m.ExtraData, out.ExtraData)
	require.True(t, out.HasFlag(FlagIsClone))
}

func TestEncodeRejectsOversizeFrame(t *testing.T) {
	m := Message{Action: CmdMessage, Payload: make([]byte, MaxFrameSize+1)}
	_, err := Encode(m)
	require.Error(t, err)
}

func TestReadFromMultipleFramesSequentially(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, Message{Action: CmdTick, Time: 1}))
	require.NoError(t, WriteTo(&buf, Message{Action: CmdStop, Time: 2}))

	first, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, CmdTick, first.Action)

	second, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, CmdStop, second.Action)
}
