// Package compare measures similarity between two SID register-write
// traces using sparse-frame semantics (§4.H). It is invoked by the
// external validator against this core's A-stage output for both the
// original and re-emitted files, not by the conversion pipeline itself.
//
// Grounded on musclesoft-nin64k/tools/forge/validate/compare.go's
// SIDWrite/CompareResult shapes, reused here for representation, but the
// comparison algorithm is new: the teacher's CompareRuns requires
// byte-identical serialized write streams, exactly the naive
// dom(f1)=dom(f2) bug §4.H documents (frames bucketed with a register
// absent from one side wrongly counted as a mismatch). This package
// buckets writes into frames and compares only the keys present in both.
package compare

import "github.com/sidforge/laxity2sf2/cpu6502"

// Frame is a sparse map of register address to the value written that
// frame; addresses never written that frame are absent, not zero.
type Frame map[uint16]byte

// Frames buckets a flat write trace by its Frame field into one Frame map
// per tick, 0-indexed up to the highest frame number observed.
func Frames(writes []cpu6502.SIDWrite) []Frame {
	maxFrame := -1
	for _, w := range writes {
		if w.Frame > maxFrame {
			maxFrame = w.Frame
		}
	}
	if maxFrame < 0 {
		return nil
	}
	frames := make([]Frame, maxFrame+1)
	for i := range frames {
		frames[i] = Frame{}
	}
	for _, w := range writes {
		frames[w.Frame][w.Addr] = w.Value
	}
	return frames
}

// Match reports whether two frames agree: for every register address
// present in both, the values must be equal. An address present in only
// one frame is ignored — by the sparse convention its value in the other
// frame is whatever it was last written to, which this comparison cannot
// see and must not guess at.
func Match(a, b Frame) bool {
	for addr, av := range a {
		if bv, ok := b[addr]; ok && av != bv {
			return false
		}
	}
	return true
}

// Result is the outcome of comparing two full frame sequences.
type Result struct {
	Ratio         float64
	TotalFrames   int
	MatchedFrames int
	FirstMismatch int // -1 if none
}

// Compare scores a pair of frame sequences over the longer of the two
// lengths; frames past the shorter sequence's end are compared against an
// empty frame, which always matches per Match's vacuous-match rule,
// matching the spirit of §8's "disjoint key sets always match" property
// while still surfacing a length mismatch via TotalFrames/len(a) and
// len(b) at the call site.
func Compare(a, b []Frame) Result {
	total := len(a)
	if len(b) > total {
		total = len(b)
	}
	if total == 0 {
		return Result{Ratio: 1.0, FirstMismatch: -1}
	}

	matched := 0
	firstMismatch := -1
	for i := 0; i < total; i++ {
		fa := frameAt(a, i)
		fb := frameAt(b, i)
		if Match(fa, fb) {
			matched++
		} else if firstMismatch == -1 {
			firstMismatch = i
		}
	}

	return Result{
		Ratio:         float64(matched) / float64(total),
		TotalFrames:   total,
		MatchedFrames: matched,
		FirstMismatch: firstMismatch,
	}
}

func frameAt(frames []Frame, i int) Frame {
	if i < len(frames) {
		return frames[i]
	}
	return Frame{}
}

// Ratio is a convenience wrapper returning just the scalar [0.0, 1.0]
// score, the shape callers that only need the headline number want.
func Ratio(a, b []Frame) float64 {
	return Compare(a, b).Ratio
}
