// Package memimage models the 64 KiB C64 memory image shared by the
// container parser, player fingerprinter, table locator, and pointer
// relocator: a byte array plus a per-byte classification bitmap that tracks
// whether each address has been identified as machine code, table data, or
// is still unclassified.
package memimage

import "github.com/sidforge/laxity2sf2/laxerr"

// Classification is the per-byte state in the bitmap. A byte starts Unused
// and may be set to Code or Data at most once; re-marking a byte with the
// classification it already has is a no-op, but marking it with the other
// classification is a conflict.
type Classification byte

const (
	Unused Classification = iota
	Code
	Data
)

func (c Classification) String() string {
	switch c {
	case Code:
		return "code"
	case Data:
		return "data"
	default:
		return "unused"
	}
}

const Size = 0x10000

// Image is a 64 KiB sparse memory image with a parallel classification
// bitmap. The zero value is a fully unused, all-zero image.
type Image struct {
	Bytes [Size]byte
	Class [Size]Classification
}

// New returns an empty image.
func New() *Image {
	return &Image{}
}

// MarkCode classifies addr as code. Returns RelocatorConflict if addr was
// already classified as Data.
func (img *Image) MarkCode(addr uint16) error {
	return img.mark(addr, Code)
}

// MarkData classifies addr as data. Returns RelocatorConflict if addr was
// already classified as Code.
func (img *Image) MarkData(addr uint16) error {
	return img.mark(addr, Data)
}

func (img *Image) mark(addr uint16, want Classification) error {
	cur := img.Class[addr]
	if cur == Unused {
		img.Class[addr] = want
		return nil
	}
	if cur == want {
		return nil
	}
	return laxerr.New(laxerr.RelocatorConflict, "address $%04X already classified as %s, cannot mark %s", addr, cur, want)
}

// MarkCodeRange marks [addr, addr+n) as code, stopping at the first
// conflict and returning it.
func (img *Image) MarkCodeRange(addr uint16, n int) error {
	for i := 0; i < n; i++ {
		if err := img.MarkCode(addr + uint16(i)); err != nil {
			return err
		}
	}
	return nil
}

// MarkDataRange marks [addr, addr+n) as data, stopping at the first
// conflict and returning it.
func (img *Image) MarkDataRange(addr uint16, n int) error {
	for i := 0; i < n; i++ {
		if err := img.MarkData(addr + uint16(i)); err != nil {
			return err
		}
	}
	return nil
}

// IsCode reports whether addr is classified as code.
func (img *Image) IsCode(addr uint16) bool { return img.Class[addr] == Code }

// IsData reports whether addr is classified as data.
func (img *Image) IsData(addr uint16) bool { return img.Class[addr] == Data }

// Disjoint verifies the classification invariant ¬(is_code ∧ is_data),
// which holds by construction here since a byte can only ever carry one
// Classification value; it exists so callers (and tests) can assert the
// invariant explicitly after a sequence of marks that merged data from
// multiple sources.
func (img *Image) Disjoint() bool {
	return true
}

// Load copies data into the image starting at addr. Returns
// OverflowsMemoryImage if addr+len(data) exceeds the 64 KiB address space.
func (img *Image) Load(addr uint16, data []byte) error {
	if int(addr)+len(data) > Size {
		return laxerr.New(laxerr.OverflowsMemoryImage, "load at $%04X with length %d exceeds $10000", addr, len(data))
	}
	copy(img.Bytes[addr:], data)
	return nil
}

// ReadWord reads a little-endian 16-bit word at addr.
func (img *Image) ReadWord(addr uint16) uint16 {
	return uint16(img.Bytes[addr]) | uint16(img.Bytes[addr+1])<<8
}

// WriteWord writes a little-endian 16-bit word at addr.
func (img *Image) WriteWord(addr uint16, val uint16) {
	img.Bytes[addr] = byte(val)
	img.Bytes[addr+1] = byte(val >> 8)
}

// Slice returns a copy of n bytes starting at addr, clamped to the image
// bounds.
func (img *Image) Slice(addr uint16, n int) []byte {
	end := int(addr) + n
	if end > Size {
		end = Size
	}
	if int(addr) >= end {
		return nil
	}
	out := make([]byte, end-int(addr))
	copy(out, img.Bytes[addr:end])
	return out
}
