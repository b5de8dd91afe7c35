package locate

import "github.com/sidforge/laxity2sf2/memimage"

const (
	sidFilterCutoffLo = 0xD416
	sidFilterCutoffHi = 0xD417
	sidFilterMode     = 0xD418

	filterEntryStride = 4
	maxFilterEntries  = 32
)

const (
	opSTAabs = 0x8D
)

// locateFilter implements §4.C's filter-table signature: writes to
// $D416/$D417/$D418 whose value was loaded via `LDA abs,Y` from the
// candidate table.
func locateFilter(img *memimage.Image) (TableLoc, bool) {
	writeSites := filterRegisterWriteSites(img)

	var candidates []*Candidate
	seen := map[uint16]bool{}
	for _, w := range writeSites {
		base, ok := precedingLDAabsY(img, w)
		if !ok || seen[base] {
			continue
		}
		seen[base] = true

		c := &Candidate{Base: base}
		hits := countFilterWriteSitesForBase(img, writeSites, base)
		c.addSignatureHits(hits)
		c.addEntryConsistency(hits >= 2)

		count := countFilterEntries(img, base)
		c.addBounds(withinLoadedData(img, base, count*filterEntryStride))

		candidates = append(candidates, c)
	}

	winner := best(candidates)
	if winner == nil {
		return TableLoc{}, false
	}
	return TableLoc{Base: winner.Base, Count: countFilterEntries(img, winner.Base)}, true
}

func filterRegisterWriteSites(img *memimage.Image) []uint16 {
	var sites []uint16
	for addr := 0; addr < memimage.Size; addr++ {
		if img.Class[addr] != memimage.Code || img.Bytes[addr] != opSTAabs {
			continue
		}
		target := absOperand(img, uint16(addr))
		if target == sidFilterCutoffLo || target == sidFilterCutoffHi || target == sidFilterMode {
			sites = append(sites, uint16(addr))
		}
	}
	return sites
}

// precedingLDAabsY looks backward a short window from a SID register
// write for the LDA abs,Y that sourced the value, returning its operand
// as the candidate table base.
func precedingLDAabsY(img *memimage.Image, staAddr uint16) (uint16, bool) {
	const window = 8
	start := int(staAddr) - window
	if start < 0 {
		start = 0
	}
	for a := int(staAddr) - 1; a >= start; a-- {
		if img.Class[a] == memimage.Code && img.Bytes[a] == opLDAabsY {
			return absOperand(img, uint16(a)), true
		}
	}
	return 0, false
}

func countFilterWriteSitesForBase(img *memimage.Image, sites []uint16, base uint16) int {
	n := 0
	for _, s := range sites {
		if b, ok := precedingLDAabsY(img, s); ok && b == base {
			n++
		}
	}
	return n
}

// countFilterEntries scans forward until "next index" (byte 3) is 0 and
// does not cycle, or the hard cap, same termination rule as pulse.
func countFilterEntries(img *memimage.Image, base uint16) int {
	for i := 0; i < maxFilterEntries; i++ {
		addr := int(base) + i*filterEntryStride
		if addr+3 >= memimage.Size {
			return i
		}
		next := img.Bytes[addr+3]
		if next == 0 && i > 0 {
			return i + 1
		}
	}
	return maxFilterEntries
}
