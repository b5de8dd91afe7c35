package locate

import "github.com/sidforge/laxity2sf2/memimage"

const (
	opSTAzp     = 0x85
	opLDAindY   = 0xB1
	maxSequences = 255
)

// locateSequences implements §4.C's sequence-pointer signature: the player
// loads a sequence-table pointer low/high byte via `LDA abs,Y` / `STA zp`
// pairs, then dereferences it with `LDA ($zp),Y`. The pointer table's own
// base — not the zero-page scratch address — is the candidate reported
// here; entries are located, not decoded (that's seqdecode's job once the
// base and per-sequence start offsets are known to the orchestrator).
func locateSequences(img *memimage.Image) (TableLoc, bool) {
	ldaHits := findOpcode(img, opLDAabsY)

	var candidates []*Candidate
	seen := map[uint16]bool{}
	for _, h := range ldaHits {
		zp, ok := followedBySTAzp(img, h, 4)
		if !ok {
			continue
		}
		base := absOperand(img, h)
		if seen[base] {
			continue
		}
		if !indirectReadUsesZP(img, h, 32, zp) {
			continue
		}
		seen[base] = true

		c := &Candidate{Base: base}
		c.addSignatureHits(countBaseOccurrences(img, ldaHits, base))
		c.addEntryConsistency(true)
		c.addBounds(withinLoadedData(img, base, 2))

		candidates = append(candidates, c)
	}

	winner := best(candidates)
	if winner == nil {
		return TableLoc{}, false
	}
	return TableLoc{Base: winner.Base, Count: maxSequences}, true
}

// followedBySTAzp reports whether an STA to a zero-page address occurs
// within window bytes after addr, returning that zero-page address.
func followedBySTAzp(img *memimage.Image, addr uint16, window int) (byte, bool) {
	end := int(addr) + window
	if end > memimage.Size {
		end = memimage.Size
	}
	for a := int(addr) + 3; a < end && a+1 < memimage.Size; a++ {
		if img.Class[a] == memimage.Code && img.Bytes[a] == opSTAzp {
			return img.Bytes[a+1], true
		}
	}
	return 0, false
}

// indirectReadUsesZP reports whether `LDA ($zp),Y` occurs within window
// bytes after addr referencing the given zero-page address.
func indirectReadUsesZP(img *memimage.Image, addr uint16, window int, zp byte) bool {
	end := int(addr) + window
	if end > memimage.Size {
		end = memimage.Size
	}
	for a := int(addr); a+1 < end; a++ {
		if img.Class[a] == memimage.Code && img.Bytes[a] == opLDAindY && img.Bytes[a+1] == zp {
			return true
		}
	}
	return false
}
