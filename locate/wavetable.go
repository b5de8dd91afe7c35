package locate

import "github.com/sidforge/laxity2sf2/memimage"

const (
	opLDAabsY = 0xB9
	opCMPimm  = 0xC9

	maxWavetableEntries = 128
)

// wavetable control markers, repeated from the spec's data model so the
// entry-consistency check can validate byte-0 of each candidate entry
// without importing the convert package (which would create an import
// cycle: convert depends on locate's Tables, not the reverse).
const (
	waveStop        = 0x7E
	waveJump        = 0x7F
	waveNoteLowMax  = 0x5F
	waveAbsNoteLow  = 0x80
	waveAbsNoteHigh = 0xDF
)

func validWaveByte0(b byte) bool {
	return b <= waveNoteLowMax || b == waveStop || b == waveJump || (b >= waveAbsNoteLow && b <= waveAbsNoteHigh)
}

// locateWavetable implements §4.C's wavetable signature: a pair of
// `LDA abs,Y` reads at base and base+1 (the two bytes of one 2-byte
// entry), with `CMP #$7E` / `CMP #$7F` marker checks nearby.
func locateWavetable(img *memimage.Image) (TableLoc, bool) {
	hits := findOpcode(img, opLDAabsY)
	bases := candidateBases(img, hits)

	var candidates []*Candidate
	for _, base := range bases {
		c := &Candidate{Base: base}
		c.addSignatureHits(countBaseOccurrences(img, hits, base))

		// Confirm a second LDA abs,Y reads base+1 (waveform byte follows
		// note_control at stride 2) and that CMP #$7E / #$7F markers are
		// nearby, evidencing the stop/jump control-byte checks.
		pairHits := countBaseOccurrences(img, hits, base+1)
		c.addSignatureHits(pairHits)

		hasStopCheck := false
		hasJumpCheck := false
		for _, h := range hits {
			if absOperand(img, h) != base && absOperand(img, h) != base+1 {
				continue
			}
			if followedWithin(img, h, 12, opCMPimm) {
				hasStopCheck = hasStopCheck || scanForCMPValue(img, h, 12, waveStop)
				hasJumpCheck = hasJumpCheck || scanForCMPValue(img, h, 12, waveJump)
			}
		}
		c.addEntryConsistency(hasStopCheck || hasJumpCheck)

		count := countWavetableEntries(img, base)
		c.addBounds(withinLoadedData(img, base, count*2))

		candidates = append(candidates, c)
		_ = pairHits
	}

	winner := best(candidates)
	if winner == nil {
		return TableLoc{}, false
	}
	return TableLoc{Base: winner.Base, Count: countWavetableEntries(img, winner.Base)}, true
}

// scanForCMPValue reports whether any CMP #imm in [addr, addr+window]
// compares against want.
func scanForCMPValue(img *memimage.Image, addr uint16, window int, want byte) bool {
	end := int(addr) + window
	if end > memimage.Size {
		end = memimage.Size
	}
	for a := int(addr); a < end-1; a++ {
		if img.Class[a] == memimage.Code && img.Bytes[a] == opCMPimm && img.Bytes[a+1] == want {
			return true
		}
	}
	return false
}

// countWavetableEntries scans forward from base until a stop marker 0x7E
// (counted as the last entry), a 0x7F whose jump target is past the cap,
// a byte 0 that is no valid note-control value, or the hard cap.
func countWavetableEntries(img *memimage.Image, base uint16) int {
	for i := 0; i < maxWavetableEntries; i++ {
		addr := int(base) + i*2
		if addr+1 >= memimage.Size {
			return i
		}
		note := img.Bytes[addr]
		if note == waveJump {
			target := img.Bytes[addr+1]
			if int(target) >= maxWavetableEntries {
				return i
			}
			continue
		}
		if note == waveStop {
			return i + 1
		}
		if !validWaveByte0(note) {
			return i
		}
	}
	return maxWavetableEntries
}
