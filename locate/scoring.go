// Package locate finds the five Laxity NewPlayer v21 data tables
// (instruments, wavetable, pulse, filter, sequences) inside a fingerprinted
// memory image by matching the code access patterns the player uses to
// read each table, then scoring the resulting candidate base addresses.
//
// Grounded on musclesoft-nin64k/tools/forge/parse/addresses.go's approach
// of reading table base addresses out of fixed code locations, generalized
// here into a searched-signature scan (the offsets aren't fixed across
// compiled player builds the way they are in the teacher's single source
// format) and combined with analysis/analysis.go's scoring/cross-reference
// idiom (tally evidence, then threshold).
package locate

import "github.com/sidforge/laxity2sf2/memimage"

// Scoring point values, named so corpus recalibration only ever touches
// this file (§9's "expose thresholds as constants" open-question
// resolution).
const (
	pointsPerSignatureHit  = 3
	maxCountedSignatureHits = 5
	pointsEntryConsistency  = 2
	pointsBounds            = 2
	pointsCrossReference    = 2

	penaltyOverlap       = -5
	penaltyUnparseable   = -3
	penaltyOutOfRange    = -3

	acceptThreshold = 6
)

// Candidate is one base-address hypothesis for a table, with the evidence
// accumulated against it.
type Candidate struct {
	Base        uint16
	SignatureHits int
	score       int
}

// Score tallies a candidate's point total from its collected evidence.
// Called once all signature hits and checks have been recorded; exported
// so the per-table locators and their tests can inspect intermediate
// scores without re-running the scan.
func (c *Candidate) Score() int { return c.score }

func (c *Candidate) addSignatureHits(n int) {
	if n > maxCountedSignatureHits {
		n = maxCountedSignatureHits
	}
	c.SignatureHits += n
	c.score += n * pointsPerSignatureHit
}

func (c *Candidate) addEntryConsistency(ok bool) {
	if ok {
		c.score += pointsEntryConsistency
	}
}

func (c *Candidate) addBounds(ok bool) {
	if ok {
		c.score += pointsBounds
	} else {
		c.score += penaltyOutOfRange
	}
}

func (c *Candidate) addCrossReference(ok bool) {
	if ok {
		c.score += pointsCrossReference
	}
}

func (c *Candidate) addOverlapPenalty(overlaps bool) {
	if overlaps {
		c.score += penaltyOverlap
	}
}

func (c *Candidate) addUnparseablePenalty(n int) {
	c.score += n * penaltyUnparseable
}

// best returns the highest-scoring candidate clearing acceptThreshold, or
// nil if none does.
func best(candidates []*Candidate) *Candidate {
	var winner *Candidate
	for _, c := range candidates {
		if c.score < acceptThreshold {
			continue
		}
		if winner == nil || c.score > winner.score {
			winner = c
		}
	}
	return winner
}

// overlapsAny reports whether [base, base+length) intersects any region in
// taken.
func overlapsAny(base uint16, length int, taken []region) bool {
	end := int(base) + length
	for _, r := range taken {
		rEnd := int(r.base) + r.length
		if int(base) < rEnd && end > int(r.base) {
			return true
		}
	}
	return false
}

type region struct {
	base   uint16
	length int
}

func withinLoadedData(img *memimage.Image, addr uint16, length int) bool {
	end := int(addr) + length
	if end > memimage.Size {
		return false
	}
	for i := int(addr); i < end; i++ {
		if img.Class[i] == memimage.Unused {
			return false
		}
	}
	return true
}
