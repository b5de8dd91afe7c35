package seqdecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDurationExpansion(t *testing.T) {
	// "duration 3, instrument 0, note C-1, end"
	stream := []byte{0x82, 0xA0, 0x0C, 0x7F}

	events, warnings, err := Decode(stream, 1)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, []Event{
		{Instrument: 0, Command: NoChange, Note: 0x0C},
		{Instrument: NoChange, Command: NoChange, Sustain: true},
		{Instrument: NoChange, Command: NoChange, Sustain: true},
	}, events)
}

func TestCommandParameterCapture(t *testing.T) {
	stream := []byte{0xC1, 0x20, 0x0C, 0x7F}

	events, warnings, err := Decode(stream, 1)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, []Event{
		{Instrument: NoChange, Command: 1, CmdParam: 0x20, Note: 0x0C},
	}, events)
}

func TestEmptySequenceYieldsEmptyEventList(t *testing.T) {
	events, warnings, err := Decode([]byte{0x7F}, 1)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Empty(t, events)
}

func TestBadInstrumentIndexFails(t *testing.T) {
	stream := []byte{0xA5, 0x0C, 0x7F} // instrument index 5, table has 1

	_, _, err := Decode(stream, 1)
	require.Error(t, err)
}

func TestTruncatedCommandFails(t *testing.T) {
	stream := []byte{0xC1}

	_, _, err := Decode(stream, 4)
	require.Error(t, err)
}

func TestUnknownByteWarnsAndAdvances(t *testing.T) {
	stream := []byte{0x60, 0x0C, 0x7F} // 0x60 is not a defined lead byte

	events, warnings, err := Decode(stream, 1)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, []Event{
		{Instrument: NoChange, Command: NoChange, Note: 0x0C},
	}, events)
}

func TestSustainEventBetweenNotes(t *testing.T) {
	stream := []byte{0x0C, 0x7E, 0x0D, 0x7F}

	events, _, err := Decode(stream, 1)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.True(t, events[1].Sustain)
}

func TestDecoderNeverInfiniteLoopsOnMalformedInput(t *testing.T) {
	stream := make([]byte, 64)
	for i := range stream {
		stream[i] = 0xC0 // decodes as 32 command/parameter pairs with no end marker
	}

	done := make(chan struct{})
	go func() {
		Decode(stream, 1)
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done
}
