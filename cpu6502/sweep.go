package cpu6502

import "github.com/sidforge/laxity2sf2/memimage"

// Sweep walks code reachable from a set of entry points, marking every byte
// it visits as Code in img's classification bitmap. It follows JMP and JSR
// absolute targets and both arms of conditional branches; it stops a path
// at RTS, RTI, and unconditional JMP (nothing falls through past those).
// Indirect jumps (JMP ($xxxx)) cannot be followed statically — the target
// depends on data not visible to a linear sweep — so a path through one
// ends without error; any bytes it should have reached stay unclassified
// until another entry point or an explicit data-table scan reaches them.
//
// This mirrors the locate and relocate stages needing the same notion of
// "this byte is code" that musclesoft-nin64k/tools/forge/validate/vm.go
// builds at a higher level (a running interpreter) but bound instead to a
// static one-pass classifier, since here the program is never executed
// during location/relocation — only during this module's own tests.
type Sweep struct {
	img     *memimage.Image
	visited map[uint16]bool
	warn    []string
}

// NewSweep returns a sweep bound to img.
func NewSweep(img *memimage.Image) *Sweep {
	return &Sweep{img: img, visited: map[uint16]bool{}}
}

// Warnings returns non-fatal irregularities collected during the sweep:
// unknown opcode bytes encountered along a traced path, and classification
// conflicts where a byte a path wants to mark as code was already marked
// as data by an earlier pass.
func (s *Sweep) Warnings() []string { return s.warn }

// From traces code reachable from each of entries and marks it. Safe to
// call multiple times with different entry points against the same image;
// already-visited addresses are skipped, so overlapping traces (e.g. init
// and play sharing a subroutine) cost no extra work.
func (s *Sweep) From(entries ...uint16) {
	for _, e := range entries {
		s.walk(e)
	}
}

func (s *Sweep) walk(pc uint16) {
	for {
		if s.visited[pc] {
			return
		}
		op := Lookup(s.img.Bytes[pc])
		if op == nil {
			s.warn = append(s.warn, fmtUnknown(pc, s.img.Bytes[pc]))
			return
		}
		if err := s.img.MarkCodeRange(pc, op.Length); err != nil {
			s.warn = append(s.warn, err.Error())
			return
		}
		s.visited[pc] = true

		switch {
		case op.Name == "JMP" && op.Mode == Absolute:
			pc = s.img.ReadWord(pc + 1)
			continue
		case op.Name == "JMP" && op.Mode == Indirect:
			return
		case op.Name == "JSR":
			target := s.img.ReadWord(pc + 1)
			s.walk(target)
			pc += uint16(op.Length)
			continue
		case op.Mode == Relative:
			target := pc + uint16(op.Length) + uint16(int8(s.img.Bytes[pc+1]))
			s.walk(target)
			pc += uint16(op.Length)
			continue
		case op.Name == "RTS", op.Name == "RTI", op.Name == "BRK":
			return
		default:
			pc += uint16(op.Length)
		}
	}
}

func fmtUnknown(pc uint16, b byte) string {
	return "cpu6502: unknown opcode $" + hexByte(b) + " at $" + hexWord(pc)
}

const hexDigits = "0123456789ABCDEF"

func hexByte(b byte) string {
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}

func hexWord(w uint16) string {
	return hexByte(byte(w >> 8)) + hexByte(byte(w))
}
