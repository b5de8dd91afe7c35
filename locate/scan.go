package locate

import "github.com/sidforge/laxity2sf2/memimage"

// findOpcode returns every code-classified address where byte `op` occurs,
// i.e. every site that could be the start of the named instruction. Sites
// inside data regions are never considered, per §4.F decision 3 applied
// here to location instead of relocation: only code bytes are read as
// opcodes.
func findOpcode(img *memimage.Image, op byte) []uint16 {
	var hits []uint16
	for addr := 0; addr < memimage.Size; addr++ {
		if img.Class[addr] == memimage.Code && img.Bytes[addr] == op {
			hits = append(hits, uint16(addr))
		}
	}
	return hits
}

// absOperand reads the 16-bit absolute operand of the 3-byte instruction
// at addr (opcode + lo + hi).
func absOperand(img *memimage.Image, addr uint16) uint16 {
	return img.ReadWord(addr + 1)
}

// followedWithin reports whether opcode `op` occurs at any offset in
// (addr, addr+window] — used to confirm a second instruction of a
// multi-instruction signature appears near the first.
func followedWithin(img *memimage.Image, addr uint16, window int, op byte) bool {
	end := int(addr) + window
	if end > memimage.Size {
		end = memimage.Size
	}
	for a := int(addr) + 1; a < end; a++ {
		if img.Class[a] == memimage.Code && img.Bytes[a] == op {
			return true
		}
	}
	return false
}

// countBaseOccurrences tallies how many of the given opcode hit sites
// carry the same absolute base operand, the "access signature
// occurrences" evidence §4.C scores.
func countBaseOccurrences(img *memimage.Image, hits []uint16, base uint16) int {
	n := 0
	for _, h := range hits {
		if absOperand(img, h) == base {
			n++
		}
	}
	return n
}

// candidateBases extracts the distinct absolute operands at a set of hit
// sites, as the set of base-address hypotheses worth scoring.
func candidateBases(img *memimage.Image, hits []uint16) []uint16 {
	seen := map[uint16]bool{}
	var bases []uint16
	for _, h := range hits {
		b := absOperand(img, h)
		if !seen[b] {
			seen[b] = true
			bases = append(bases, b)
		}
	}
	return bases
}
