package laxity2sf2

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sidforge/laxity2sf2/laxerr"
)

// buildMinimalSID produces a syntactically valid PSID container whose
// init routine carries none of fingerprint's three recognised signatures,
// enough to drive Convert through stage A and fail cleanly at stage B.
// The full A-G success path, with five mutually consistent table
// signatures embedded in a sweep-reachable code graph, is built separately
// in fixture_full_test.go.
func buildMinimalSID(initAddr, playAddr uint16) []byte {
	const dataOffset = 0x7C
	loadAddr := initAddr
	prog := []byte{0xEA, 0xEA, 0x60} // NOP NOP RTS, matches no fingerprint rule

	data := make([]byte, dataOffset+len(prog))
	copy(data[0x00:], "PSID")
	binary.BigEndian.PutUint16(data[0x04:], 2)
	binary.BigEndian.PutUint16(data[0x06:], dataOffset)
	binary.BigEndian.PutUint16(data[0x08:], loadAddr)
	binary.BigEndian.PutUint16(data[0x0A:], initAddr)
	binary.BigEndian.PutUint16(data[0x0C:], playAddr)
	binary.BigEndian.PutUint16(data[0x0E:], 1)
	binary.BigEndian.PutUint16(data[0x10:], 1)
	copy(data[dataOffset:], prog)
	return data
}

func TestConvertRejectsUnfingerprintedPlayer(t *testing.T) {
	raw := buildMinimalSID(0x1000, 0x1003)

	_, err := Convert(raw, ConvertOptions{})
	require.Error(t, err)

	var target *laxerr.Error
	require.ErrorAs(t, err, &target)
	require.Equal(t, laxerr.UnsupportedPlayer, target.Kind)
}

func TestConvertRejectsUnrecognisedContainer(t *testing.T) {
	raw := buildMinimalSID(0x1000, 0x1003)
	copy(raw[0:4], "NOPE")

	_, err := Convert(raw, ConvertOptions{})
	require.Error(t, err)

	var target *laxerr.Error
	require.ErrorAs(t, err, &target)
	require.Equal(t, laxerr.UnrecognisedContainer, target.Kind)
}

// TestConvertIsSafeForConcurrentUse drives many goroutines through Convert
// against independently-built copies of the same input and requires every
// one to observe the identical error kind, demonstrating the pipeline
// carries no shared mutable state across calls (§5's concurrency
// contract) even on the error path, which exercises every stage up to and
// including the fingerprint gate.
func TestConvertIsSafeForConcurrentUse(t *testing.T) {
	const goroutines = 32

	var wg sync.WaitGroup
	kinds := make([]laxerr.Kind, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			raw := buildMinimalSID(0x1000, 0x1003)
			_, err := Convert(raw, ConvertOptions{})
			var target *laxerr.Error
			if require.ErrorAs(t, err, &target) {
				kinds[idx] = target.Kind
			}
		}(i)
	}
	wg.Wait()

	for _, k := range kinds {
		require.Equal(t, laxerr.UnsupportedPlayer, k)
	}
}

func TestConvertOptionsZeroValueKeepsSourceLoadAddress(t *testing.T) {
	opts := ConvertOptions{}
	require.Equal(t, uint16(0), opts.NewLoadAddr)
	require.Equal(t, DriverAuto, opts.Driver)
}
