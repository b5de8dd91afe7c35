// Package cpu6502 provides the opcode table, a linear-sweep code/data
// classifier, and a small interpreter for the NMOS 6502 CPU used by the
// Laxity NewPlayer v21 driver. It backs the table locator's code sweep, the
// player fingerprinter's pattern scan, and the pointer relocator's
// operand-size and addressing-mode lookups.
package cpu6502

// AddressingMode enumerates the 6502 addressing modes. Grouped the same way
// a disassembler needs them: by how many operand bytes follow the opcode
// and whether the operand is a candidate for pointer relocation.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX
	IndirectY
)

// Opcode describes one legal NMOS 6502 instruction encoding.
type Opcode struct {
	Value  byte
	Name   string
	Length int
	Mode   AddressingMode
}

// Relocatable reports whether operands using this addressing mode carry an
// absolute 16-bit address that the pointer relocator must rewrite: LDA
// $xxxx, absolute-X, absolute-Y, and JMP ($xxxx) (the Indirect mode, used
// only by opcode $6C). Zero-page modes, including the zero-page indirect
// pair IndirectX ($zp,X) and IndirectY ($zp),Y — both one-byte operands
// addressing a pointer stored in zero page, not an absolute address
// themselves — never relocate; nor does Relative, whose operand is a
// signed branch displacement.
func (m AddressingMode) Relocatable() bool {
	switch m {
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return true
	default:
		return false
	}
}

// OperandIsAbsolute reports whether this opcode's operand is the 16-bit
// absolute address the relocator must patch. Length == 3 is implied by
// every Relocatable mode already (each is a 3-byte encoding) and is
// checked explicitly here so the two stay in lockstep if either changes.
func (o Opcode) OperandIsAbsolute() bool {
	return o.Mode.Relocatable() && o.Length == 3
}

// Table indexes every legal opcode value directly; a nil entry means the
// byte is not a documented 6502 opcode (illegal/undocumented opcodes never
// appear in a correctly compiled player and are treated as non-code).
var Table [256]*Opcode

func def(value byte, name string, length int, mode AddressingMode) {
	Table[value] = &Opcode{Value: value, Name: name, Length: length, Mode: mode}
}

func init() {
	def(0x69, "ADC", 2, Immediate)
	def(0x65, "ADC", 2, ZeroPage)
	def(0x75, "ADC", 2, ZeroPageX)
	def(0x6D, "ADC", 3, Absolute)
	def(0x7D, "ADC", 3, AbsoluteX)
	def(0x79, "ADC", 3, AbsoluteY)
	def(0x61, "ADC", 2, IndirectX)
	def(0x71, "ADC", 2, IndirectY)

	def(0x29, "AND", 2, Immediate)
	def(0x25, "AND", 2, ZeroPage)
	def(0x35, "AND", 2, ZeroPageX)
	def(0x2D, "AND", 3, Absolute)
	def(0x3D, "AND", 3, AbsoluteX)
	def(0x39, "AND", 3, AbsoluteY)
	def(0x21, "AND", 2, IndirectX)
	def(0x31, "AND", 2, IndirectY)

	def(0x0A, "ASL", 1, Accumulator)
	def(0x06, "ASL", 2, ZeroPage)
	def(0x16, "ASL", 2, ZeroPageX)
	def(0x0E, "ASL", 3, Absolute)
	def(0x1E, "ASL", 3, AbsoluteX)

	def(0x90, "BCC", 2, Relative)
	def(0xB0, "BCS", 2, Relative)
	def(0xF0, "BEQ", 2, Relative)
	def(0x24, "BIT", 2, ZeroPage)
	def(0x2C, "BIT", 3, Absolute)
	def(0x30, "BMI", 2, Relative)
	def(0xD0, "BNE", 2, Relative)
	def(0x10, "BPL", 2, Relative)
	def(0x00, "BRK", 1, Implied)
	def(0x50, "BVC", 2, Relative)
	def(0x70, "BVS", 2, Relative)

	def(0x18, "CLC", 1, Implied)
	def(0xD8, "CLD", 1, Implied)
	def(0x58, "CLI", 1, Implied)
	def(0xB8, "CLV", 1, Implied)

	def(0xC9, "CMP", 2, Immediate)
	def(0xC5, "CMP", 2, ZeroPage)
	def(0xD5, "CMP", 2, ZeroPageX)
	def(0xCD, "CMP", 3, Absolute)
	def(0xDD, "CMP", 3, AbsoluteX)
	def(0xD9, "CMP", 3, AbsoluteY)
	def(0xC1, "CMP", 2, IndirectX)
	def(0xD1, "CMP", 2, IndirectY)

	def(0xE0, "CPX", 2, Immediate)
	def(0xE4, "CPX", 2, ZeroPage)
	def(0xEC, "CPX", 3, Absolute)
	def(0xC0, "CPY", 2, Immediate)
	def(0xC4, "CPY", 2, ZeroPage)
	def(0xCC, "CPY", 3, Absolute)

	def(0xC6, "DEC", 2, ZeroPage)
	def(0xD6, "DEC", 2, ZeroPageX)
	def(0xCE, "DEC", 3, Absolute)
	def(0xDE, "DEC", 3, AbsoluteX)
	def(0xCA, "DEX", 1, Implied)
	def(0x88, "DEY", 1, Implied)

	def(0x49, "EOR", 2, Immediate)
	def(0x45, "EOR", 2, ZeroPage)
	def(0x55, "EOR", 2, ZeroPageX)
	def(0x4D, "EOR", 3, Absolute)
	def(0x5D, "EOR", 3, AbsoluteX)
	def(0x59, "EOR", 3, AbsoluteY)
	def(0x41, "EOR", 2, IndirectX)
	def(0x51, "EOR", 2, IndirectY)

	def(0xE6, "INC", 2, ZeroPage)
	def(0xF6, "INC", 2, ZeroPageX)
	def(0xEE, "INC", 3, Absolute)
	def(0xFE, "INC", 3, AbsoluteX)
	def(0xE8, "INX", 1, Implied)
	def(0xC8, "INY", 1, Implied)

	def(0x4C, "JMP", 3, Absolute)
	def(0x6C, "JMP", 3, Indirect)
	def(0x20, "JSR", 3, Absolute)

	def(0xA9, "LDA", 2, Immediate)
	def(0xA5, "LDA", 2, ZeroPage)
	def(0xB5, "LDA", 2, ZeroPageX)
	def(0xAD, "LDA", 3, Absolute)
	def(0xBD, "LDA", 3, AbsoluteX)
	def(0xB9, "LDA", 3, AbsoluteY)
	def(0xA1, "LDA", 2, IndirectX)
	def(0xB1, "LDA", 2, IndirectY)

	def(0xA2, "LDX", 2, Immediate)
	def(0xA6, "LDX", 2, ZeroPage)
	def(0xB6, "LDX", 2, ZeroPageY)
	def(0xAE, "LDX", 3, Absolute)
	def(0xBE, "LDX", 3, AbsoluteY)

	def(0xA0, "LDY", 2, Immediate)
	def(0xA4, "LDY", 2, ZeroPage)
	def(0xB4, "LDY", 2, ZeroPageX)
	def(0xAC, "LDY", 3, Absolute)
	def(0xBC, "LDY", 3, AbsoluteX)

	def(0x4A, "LSR", 1, Accumulator)
	def(0x46, "LSR", 2, ZeroPage)
	def(0x56, "LSR", 2, ZeroPageX)
	def(0x4E, "LSR", 3, Absolute)
	def(0x5E, "LSR", 3, AbsoluteX)

	def(0xEA, "NOP", 1, Implied)

	def(0x09, "ORA", 2, Immediate)
	def(0x05, "ORA", 2, ZeroPage)
	def(0x15, "ORA", 2, ZeroPageX)
	def(0x0D, "ORA", 3, Absolute)
	def(0x1D, "ORA", 3, AbsoluteX)
	def(0x19, "ORA", 3, AbsoluteY)
	def(0x01, "ORA", 2, IndirectX)
	def(0x11, "ORA", 2, IndirectY)

	def(0x48, "PHA", 1, Implied)
	def(0x08, "PHP", 1, Implied)
	def(0x68, "PLA", 1, Implied)
	def(0x28, "PLP", 1, Implied)

	def(0x2A, "ROL", 1, Accumulator)
	def(0x26, "ROL", 2, ZeroPage)
	def(0x36, "ROL", 2, ZeroPageX)
	def(0x2E, "ROL", 3, Absolute)
	def(0x3E, "ROL", 3, AbsoluteX)

	def(0x6A, "ROR", 1, Accumulator)
	def(0x66, "ROR", 2, ZeroPage)
	def(0x76, "ROR", 2, ZeroPageX)
	def(0x6E, "ROR", 3, Absolute)
	def(0x7E, "ROR", 3, AbsoluteX)

	def(0x40, "RTI", 1, Implied)
	def(0x60, "RTS", 1, Implied)

	def(0xE9, "SBC", 2, Immediate)
	def(0xE5, "SBC", 2, ZeroPage)
	def(0xF5, "SBC", 2, ZeroPageX)
	def(0xED, "SBC", 3, Absolute)
	def(0xFD, "SBC", 3, AbsoluteX)
	def(0xF9, "SBC", 3, AbsoluteY)
	def(0xE1, "SBC", 2, IndirectX)
	def(0xF1, "SBC", 2, IndirectY)

	def(0x38, "SEC", 1, Implied)
	def(0xF8, "SED", 1, Implied)
	def(0x78, "SEI", 1, Implied)

	def(0x85, "STA", 2, ZeroPage)
	def(0x95, "STA", 2, ZeroPageX)
	def(0x8D, "STA", 3, Absolute)
	def(0x9D, "STA", 3, AbsoluteX)
	def(0x99, "STA", 3, AbsoluteY)
	def(0x81, "STA", 2, IndirectX)
	def(0x91, "STA", 2, IndirectY)

	def(0x86, "STX", 2, ZeroPage)
	def(0x96, "STX", 2, ZeroPageY)
	def(0x8E, "STX", 3, Absolute)
	def(0x84, "STY", 2, ZeroPage)
	def(0x94, "STY", 2, ZeroPageX)
	def(0x8C, "STY", 3, Absolute)

	def(0xAA, "TAX", 1, Implied)
	def(0xA8, "TAY", 1, Implied)
	def(0xBA, "TSX", 1, Implied)
	def(0x8A, "TXA", 1, Implied)
	def(0x9A, "TXS", 1, Implied)
	def(0x98, "TYA", 1, Implied)
}

// Lookup returns the decoded opcode for value, or nil if it is not a
// documented legal 6502 opcode.
func Lookup(value byte) *Opcode {
	return Table[value]
}
