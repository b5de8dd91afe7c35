package locate

import (
	"github.com/sidforge/laxity2sf2/cpu6502"
	"github.com/sidforge/laxity2sf2/laxerr"
	"github.com/sidforge/laxity2sf2/memimage"
)

// TableLoc is a located table's base address and entry count within the
// owning memory image.
type TableLoc struct {
	Base  uint16
	Count int
}

// Tables collects every table this core needs downstream. Orders holds one
// TableLoc per voice (see locateOrderLists); unlike the other five, a
// missing order list is not a hard failure for Run — §4.C's five signature
// rules don't name it, so its absence only ever produces a warning.
type Tables struct {
	Instruments TableLoc
	Wavetable   TableLoc
	Pulse       TableLoc
	Filter      TableLoc
	Sequences   TableLoc
	Orders      [numVoices]TableLoc
}

// Run classifies the code region by sweeping from both initAddr and
// playAddr (no earlier stage sweeps, so Run builds the code bitmap it
// searches), then locates all five tables.
// Wavetable, pulse, filter, and sequences are located first since
// instrument cross-reference scoring needs their extents; see §4.C.
func Run(img *memimage.Image, initAddr, playAddr uint16) (Tables, []string, error) {
	var warnings []string

	sweep := cpu6502.NewSweep(img)
	sweep.From(initAddr, playAddr)
	warnings = append(warnings, sweep.Warnings()...)

	var tables Tables

	wt, ok := locateWavetable(img)
	if !ok {
		return Tables{}, warnings, laxerr.TableNotLocatedErr("wavetable")
	}
	tables.Wavetable = wt
	if err := img.MarkDataRange(wt.Base, wt.Count*2); err != nil {
		warnings = append(warnings, err.Error())
	}

	pt, ok := locatePulse(img)
	if !ok {
		return Tables{}, warnings, laxerr.TableNotLocatedErr("pulse")
	}
	tables.Pulse = pt
	if err := img.MarkDataRange(pt.Base, pt.Count*pulseEntryStride); err != nil {
		warnings = append(warnings, err.Error())
	}

	ft, ok := locateFilter(img)
	if !ok {
		return Tables{}, warnings, laxerr.TableNotLocatedErr("filter")
	}
	tables.Filter = ft
	if err := img.MarkDataRange(ft.Base, ft.Count*filterEntryStride); err != nil {
		warnings = append(warnings, err.Error())
	}

	st, ok := locateSequences(img)
	if !ok {
		return Tables{}, warnings, laxerr.TableNotLocatedErr("sequences")
	}
	tables.Sequences = st

	it, ok := locateInstruments(img, tables)
	if !ok {
		return Tables{}, warnings, laxerr.TableNotLocatedErr("instruments")
	}
	tables.Instruments = it
	if err := img.MarkDataRange(it.Base, it.Count*instrumentColumns); err != nil {
		warnings = append(warnings, err.Error())
	}

	if ol, ok := locateOrderLists(img); ok {
		tables.Orders = ol
		for _, v := range ol {
			if err := img.MarkDataRange(v.Base, v.Count*2); err != nil {
				warnings = append(warnings, err.Error())
			}
		}
	} else {
		warnings = append(warnings, "locate: could not locate three distinct per-voice order lists; Orders output will be empty")
	}

	return tables, warnings, nil
}
