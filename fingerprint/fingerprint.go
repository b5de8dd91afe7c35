// Package fingerprint classifies a loaded memory image as the Laxity
// NewPlayer v21 driver or something else, gating the table locator: nothing
// downstream should run against a player this module cannot recognise.
//
// Grounded on musclesoft-nin64k/tools/forge/analysis/analysis.go's
// signature-scan idiom (walk a byte region, test fixed patterns at each
// offset) reused here for a different purpose: identifying the player
// itself rather than scoring a located table.
package fingerprint

import (
	"bytes"
	"strings"

	"github.com/sidforge/laxity2sf2/memimage"
)

// Player is the closed set of source players this core can recognise.
// Adding a player means extending this enum and Identify's rule list, never
// introducing a parallel type hierarchy.
type Player int

const (
	UnknownOther Player = iota
	LaxityV21
	UnknownSF2Exported
)

func (p Player) String() string {
	switch p {
	case LaxityV21:
		return "LaxityV21"
	case UnknownSF2Exported:
		return "UnknownSF2Exported"
	default:
		return "UnknownOther"
	}
}

// textMarker is the exact-case substring rule 1 looks for.
const textMarker = "X-PLAYER BY LAXITY"

// sf2MagicWord is the embedded marker SF2-exported files carry (§4.B rule
// 3), reused from the target format's own magic (§6.2).
const sf2MagicWord = 0x1337

// Identify runs the detection rules in spec order, first match wins.
func Identify(img *memimage.Image, initAddr uint16) Player {
	data := img.Bytes[:]

	if bytes.Contains(data, []byte(textMarker)) {
		return LaxityV21
	}
	if containsFoldLaxity(data) {
		return LaxityV21
	}

	if matchesNewPlayerSkeleton(img, initAddr) {
		return LaxityV21
	}

	if off, ok := findSF2Marker(img); ok {
		if descriptorChainParses(img, off+4) {
			return UnknownSF2Exported
		}
	}

	return UnknownOther
}

func containsFoldLaxity(data []byte) bool {
	return bytes.Contains(bytes.ToUpper(data), []byte(strings.ToUpper("LAXITY")))
}

// matchesNewPlayerSkeleton implements rule 2: the byte pattern
// `A9 00 8D 04 D4` (LDA #$00; STA $D404) within 16 bytes of initAddr,
// plus elsewhere a `LDY #$07 ... BPL` loop preceded by `LDX #$18`.
func matchesNewPlayerSkeleton(img *memimage.Image, initAddr uint16) bool {
	sigStart := int(initAddr)
	sigEnd := sigStart + 16
	found := false
	for addr := sigStart; addr+5 <= sigEnd && addr+5 < memimage.Size; addr++ {
		if img.Bytes[addr] == 0xA9 && img.Bytes[addr+1] == 0x00 &&
			img.Bytes[addr+2] == 0x8D && img.Bytes[addr+3] == 0x04 && img.Bytes[addr+4] == 0xD4 {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	return findLDXThenLDYBPLLoop(img)
}

// findLDXThenLDYBPLLoop sweeps the loaded region for `LDX #$18` followed,
// within a short window, by `LDY #$07` and a later `BPL` back-branch —
// the voice-init loop shape spec.md's rule 2 describes. A stride-1 window
// scan is used rather than a regex since the pattern spans variable gaps.
func findLDXThenLDYBPLLoop(img *memimage.Image) bool {
	const window = 64
	for addr := 0; addr < memimage.Size-6; addr++ {
		if img.Bytes[addr] != 0xA2 || img.Bytes[addr+1] != 0x18 {
			continue
		}
		end := addr + window
		if end > memimage.Size {
			end = memimage.Size
		}
		ldyAt := -1
		for i := addr + 2; i < end-1; i++ {
			if img.Bytes[i] == 0xA0 && img.Bytes[i+1] == 0x07 {
				ldyAt = i
				break
			}
		}
		if ldyAt == -1 {
			continue
		}
		for i := ldyAt; i < end-1; i++ {
			if img.Bytes[i] == 0x10 && img.Bytes[i+1]&0x80 != 0 {
				return true
			}
		}
	}
	return false
}

func findSF2Marker(img *memimage.Image) (int, bool) {
	limit := 4096
	if limit > memimage.Size-2 {
		limit = memimage.Size - 2
	}
	for addr := 0; addr < limit; addr += 2 {
		if img.ReadWord(uint16(addr)) == sf2MagicWord {
			return addr, true
		}
	}
	return 0, false
}

// descriptorChainParses does a cheap structural check: walk
// {id,size,payload} records from off until a terminator (id 0xFF) or a
// record whose size runs past the image end, matching the contract §6.3
// describes without depending on the descriptor package (fingerprinting
// must stay self-contained and cheap — it runs before the player is even
// known to be one this core supports).
func descriptorChainParses(img *memimage.Image, off int) bool {
	pos := off
	for i := 0; i < 64; i++ {
		if pos+2 > memimage.Size {
			return false
		}
		id := img.Bytes[pos]
		size := int(img.Bytes[pos+1])
		if id == 0xFF {
			return true
		}
		pos += 2 + size
		if pos > memimage.Size {
			return false
		}
	}
	return false
}
