package locate

import "github.com/sidforge/laxity2sf2/memimage"

const (
	opLDAabsX      = 0xBD
	numVoices      = 3
	orderEndOfList = 0xFF
	maxOrderLen    = 64
)

// locateOrderLists finds the per-voice order-list base addresses. Unlike
// the other five tables, §4.C names no dedicated signature for this one:
// the player walks each voice's order list with a plain indexed read
// advancing a per-voice cursor (`LDA abs,X`) rather than the
// pointer-dereference shape (`LDA abs,Y` / `STA zp` / `LDA ($zp),Y`)
// locateSequences looks for, so the two are distinguishable by opcode and
// addressing mode alone. Exactly numVoices distinct, separately-scored
// bases are returned, ordered by address (voice 0, 1, 2); fewer passing
// candidates report not found.
func locateOrderLists(img *memimage.Image) ([numVoices]TableLoc, bool) {
	hits := findOpcode(img, opLDAabsX)
	bases := candidateBases(img, hits)

	var candidates []*Candidate
	for _, base := range bases {
		c := &Candidate{Base: base}
		c.addSignatureHits(countBaseOccurrences(img, hits, base))

		count := countOrderEntries(img, base)
		c.addEntryConsistency(count > 0)
		c.addBounds(withinLoadedData(img, base, count*2))

		candidates = append(candidates, c)
	}

	winners := topDistinct(candidates, numVoices)
	if len(winners) < numVoices {
		return [numVoices]TableLoc{}, false
	}

	var out [numVoices]TableLoc
	for i, w := range winners {
		out[i] = TableLoc{Base: w.Base, Count: countOrderEntries(img, w.Base)}
	}
	return out, true
}

// countOrderEntries scans forward in (transpose, sequence_index) pairs
// until the end-of-list marker or the hard cap.
func countOrderEntries(img *memimage.Image, base uint16) int {
	for i := 0; i < maxOrderLen; i++ {
		addr := int(base) + i*2
		if addr+1 >= memimage.Size {
			return i
		}
		if img.Bytes[addr] == orderEndOfList {
			return i
		}
	}
	return maxOrderLen
}

// topDistinct returns up to n candidates clearing acceptThreshold, highest
// score first, sorted by base address ascending once selected (voice 0
// before voice 1 before voice 2).
func topDistinct(candidates []*Candidate, n int) []*Candidate {
	var passing []*Candidate
	for _, c := range candidates {
		if c.score >= acceptThreshold {
			passing = append(passing, c)
		}
	}
	for i := 0; i < len(passing); i++ {
		for j := i + 1; j < len(passing); j++ {
			if passing[j].score > passing[i].score {
				passing[i], passing[j] = passing[j], passing[i]
			}
		}
	}
	if len(passing) > n {
		passing = passing[:n]
	}
	for i := 0; i < len(passing); i++ {
		for j := i + 1; j < len(passing); j++ {
			if passing[j].Base < passing[i].Base {
				passing[i], passing[j] = passing[j], passing[i]
			}
		}
	}
	return passing
}
