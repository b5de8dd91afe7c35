// Package reloc rewrites absolute pointers embedded in relocated driver
// code when the image is repacked at a new load address.
//
// Grounded on chriskillpack-bbcdisasm/opcodes.go's Opcode{Value,Name,
// Length,AddrMode} shape (reused here as cpu6502.Opcode, trimmed to legal
// NMOS encodings since illegal opcodes can't appear in correctly compiled
// player code) combined with musclesoft-nin64k/tools/forge/validate/vm.go's
// per-opcode dispatch idiom, generalized from "execute this instruction"
// to "does this instruction's operand need patching".
package reloc

import (
	"fmt"

	"github.com/sidforge/laxity2sf2/cpu6502"
	"github.com/sidforge/laxity2sf2/memimage"
)

const (
	ioSpaceStart = 0xD000
	ioSpaceEnd   = 0xE000
	zeroPageEnd  = 0x0100

	// basicROMStart/basicROMEnd and kernalROMStart/kernalROMEnd are the
	// C64's default ROM bank ranges. A Laxity driver never branches into
	// BASIC or the KERNAL, so an operand landing here almost certainly
	// means an instruction misclassified as code; excluding the range
	// keeps relocation from touching it either way.
	basicROMStart  = 0xA000
	basicROMEnd    = 0xC000
	kernalROMStart = 0xE000
	kernalROMEnd   = 0x10000
)

// Relocate rewrites every absolute-ish operand in img's code region that
// points into loaded RAM, adding delta. It mutates img in place and
// returns non-fatal warnings (unknown opcode bytes encountered while
// scanning, which are never fatal since a stride-1 scan over a real
// driver should only ever see legal opcodes at code-classified offsets;
// seeing one that isn't signals a classification bug worth surfacing, not
// aborting on).
func Relocate(img *memimage.Image, oldLoad, newLoad uint16) ([]string, error) {
	delta := int32(newLoad) - int32(oldLoad)
	var warnings []string

	// Critical design decision 1 (§4.F): scan every byte, not every even
	// byte. Variable-length instructions scatter operands at odd offsets;
	// a stride-2 scan would miss them.
	addr := 0
	for addr < memimage.Size {
		// Critical design decision 3: never scan data regions as code.
		if img.Class[addr] != memimage.Code {
			addr++
			continue
		}

		op := cpu6502.Lookup(img.Bytes[addr])
		if op == nil {
			warnings = append(warnings, fmt.Sprintf("reloc: unknown opcode $%02X at $%04X, skipping", img.Bytes[addr], addr))
			addr++
			continue
		}

		if op.OperandIsAbsolute() && addr+2 < memimage.Size {
			operand := img.ReadWord(uint16(addr + 1))
			if operandIsRelocatable(operand) {
				img.WriteWord(uint16(addr+1), uint16(int32(operand)+delta))
			}
		}

		addr += op.Length
	}

	return warnings, nil
}

// operandIsRelocatable implements critical design decision 4: only
// operands pointing into loaded RAM relocate. I/O space, ROM, and zero
// page are left untouched regardless of what the classification bitmap
// says about the instruction itself.
func operandIsRelocatable(operand uint16) bool {
	if operand < zeroPageEnd {
		return false
	}
	if operand >= ioSpaceStart && operand < ioSpaceEnd {
		return false
	}
	if operand >= basicROMStart && operand < basicROMEnd {
		return false
	}
	if int(operand) >= kernalROMStart && int(operand) < kernalROMEnd {
		return false
	}
	return true
}
