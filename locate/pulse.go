package locate

import "github.com/sidforge/laxity2sf2/memimage"

const (
	opADCabsY1 = 0x79
	maxPulseEntries = 64
	pulseEntryStride = 4
)

// locatePulse implements §4.C's pulse-table signature: `LDA abs,Y` followed
// by `ADC abs+1,Y` with a ×4 stride INY;INY;INY;INY confirming 4-byte
// entries.
func locatePulse(img *memimage.Image) (TableLoc, bool) {
	hits := findOpcode(img, opLDAabsY)
	bases := candidateBases(img, hits)

	var candidates []*Candidate
	for _, base := range bases {
		c := &Candidate{Base: base}
		c.addSignatureHits(countBaseOccurrences(img, hits, base))

		hasADCFollow := false
		for _, h := range hits {
			if absOperand(img, h) != base {
				continue
			}
			if hasADCAtBasePlus1(img, h) {
				hasADCFollow = true
				break
			}
		}
		c.addEntryConsistency(hasADCFollow)

		hasQuadINY := false
		for _, h := range hits {
			if absOperand(img, h) == base && scanForQuadINY(img, h) {
				hasQuadINY = true
				break
			}
		}
		c.addEntryConsistency(hasQuadINY)

		count := countPulseEntries(img, base)
		c.addBounds(withinLoadedData(img, base, count*pulseEntryStride))

		candidates = append(candidates, c)
	}

	winner := best(candidates)
	if winner == nil {
		return TableLoc{}, false
	}
	return TableLoc{Base: winner.Base, Count: countPulseEntries(img, winner.Base)}, true
}

func hasADCAtBasePlus1(img *memimage.Image, ldaAddr uint16) bool {
	const window = 8
	end := int(ldaAddr) + window
	if end > memimage.Size {
		end = memimage.Size
	}
	base := absOperand(img, ldaAddr)
	for a := int(ldaAddr) + 3; a+2 < end; a++ {
		if img.Class[a] != memimage.Code || img.Bytes[a] != opADCabsY1 {
			continue
		}
		if img.ReadWord(uint16(a+1)) == base+1 {
			return true
		}
	}
	return false
}

const opINY = 0xC8

func scanForQuadINY(img *memimage.Image, near uint16) bool {
	const window = 24
	start := int(near)
	end := start + window
	if end > memimage.Size {
		end = memimage.Size
	}
	run := 0
	for a := start; a < end; a++ {
		if img.Class[a] == memimage.Code && img.Bytes[a] == opINY {
			run++
			if run >= pulseEntryStride {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

// countPulseEntries scans forward until "next index" (byte 3) is 0 and
// does not cycle back to an earlier entry, or the hard cap.
func countPulseEntries(img *memimage.Image, base uint16) int {
	for i := 0; i < maxPulseEntries; i++ {
		addr := int(base) + i*pulseEntryStride
		if addr+3 >= memimage.Size {
			return i
		}
		next := img.Bytes[addr+3]
		if next == 0 && i > 0 {
			return i + 1
		}
	}
	return maxPulseEntries
}
