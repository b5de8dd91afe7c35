package locate

import "github.com/sidforge/laxity2sf2/memimage"

const (
	opSTAabsX          = 0x9D
	instrumentColumns  = 8
	maxInstrumentCount = 32

	colFilterPtr = 4
	colPulsePtr  = 5
	colWavePtr   = 7
)

// locateInstruments implements §4.C's instrument signature: `LDA abs,Y` /
// `STA abs,X` pairs reading eight sequential columns (bytes 0..7 of each
// 8-byte packed record) into a per-voice state array, scored with
// cross-references into the already-located wavetable and pulse tables
// when available.
func locateInstruments(img *memimage.Image, tables Tables) (TableLoc, bool) {
	ldaHits := findOpcode(img, opLDAabsY)
	staHits := findOpcode(img, opSTAabsX)

	bases := candidateBases(img, ldaHits)

	var candidates []*Candidate
	for _, base := range bases {
		present := 0
		for col := 0; col < instrumentColumns; col++ {
			if countBaseOccurrences(img, ldaHits, base+uint16(col)) > 0 {
				present++
			}
		}
		if present < instrumentColumns/2 {
			continue
		}

		c := &Candidate{Base: base}
		c.addSignatureHits(present)
		c.addEntryConsistency(hasNearbySTAabsX(img, ldaHits, base, staHits))

		count := countInstruments(img, base)
		c.addBounds(withinLoadedData(img, base, count*instrumentColumns))
		c.addCrossReference(instrumentCrossReferencesHold(img, base, count, tables))

		candidates = append(candidates, c)
	}

	winner := best(candidates)
	if winner == nil {
		return TableLoc{}, false
	}
	return TableLoc{Base: winner.Base, Count: countInstruments(img, winner.Base)}, true
}

func hasNearbySTAabsX(img *memimage.Image, ldaHits []uint16, base uint16, staHits []uint16) bool {
	for _, l := range ldaHits {
		if absOperand(img, l) < base || absOperand(img, l) > base+instrumentColumns {
			continue
		}
		for _, s := range staHits {
			if s > l && int(s)-int(l) <= 4 {
				return true
			}
		}
	}
	return false
}

// countInstruments returns the hard cap of 32 rows, or fewer only when the
// 64 KiB image ends first; row contents are not inspected.
func countInstruments(img *memimage.Image, base uint16) int {
	n := 0
	for ; n < maxInstrumentCount; n++ {
		addr := int(base) + n*instrumentColumns
		if addr+instrumentColumns > memimage.Size {
			break
		}
	}
	return n
}

func instrumentCrossReferencesHold(img *memimage.Image, base uint16, count int, tables Tables) bool {
	if count == 0 {
		return false
	}
	ok := 0
	checked := 0
	for i := 0; i < count; i++ {
		rowAddr := int(base) + i*instrumentColumns
		if rowAddr+instrumentColumns > memimage.Size {
			break
		}
		wavePtr := img.Bytes[rowAddr+colWavePtr]
		if tables.Wavetable.Count > 0 {
			checked++
			if int(wavePtr) < tables.Wavetable.Count {
				ok++
			}
		}
		pulsePtr := img.Bytes[rowAddr+colPulsePtr]
		if pulsePtr != 0 && tables.Pulse.Count > 0 {
			checked++
			if pulsePtr%4 == 0 && int(pulsePtr/4) < tables.Pulse.Count {
				ok++
			}
		}
	}
	return checked > 0 && ok == checked
}
