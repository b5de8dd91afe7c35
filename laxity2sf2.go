// Package laxity2sf2 converts Laxity NewPlayer v21 SID binaries into the
// target tracker editor's project format. Convert is the library's entire
// public surface; everything else (CLI, logging, batch driving) is an
// external collaborator layered on top.
//
// Grounded on musclesoft-nin64k/tools/forge/pipeline's stage-composition
// shape (each stage is a plain function call, failures stop the pipeline)
// adapted from the teacher's fmt.Println-and-os.Exit CLI style to a pure
// function that returns a Result or an error — the core performs no I/O
// and owns no process-global state (§5).
package laxity2sf2

import (
	"github.com/sidforge/laxity2sf2/convert"
	"github.com/sidforge/laxity2sf2/fingerprint"
	"github.com/sidforge/laxity2sf2/laxerr"
	"github.com/sidforge/laxity2sf2/locate"
	"github.com/sidforge/laxity2sf2/memimage"
	"github.com/sidforge/laxity2sf2/reloc"
	"github.com/sidforge/laxity2sf2/seqdecode"
	"github.com/sidforge/laxity2sf2/sid"
	"github.com/sidforge/laxity2sf2/write"
)

// DriverMode selects how the orchestrator treats an unrecognised player
// (§6.4's --driver override).
type DriverMode int

const (
	DriverAuto DriverMode = iota
	DriverLegacy
	DriverTarget
)

// ConvertOptions configures a single conversion. The zero value is a
// legitimate default (auto-detect driver, new load address equal to the
// source load address). There is no config file to parse here — options
// arrive as a plain struct from the call site, which is the whole of what
// this core needs (§9 ambient-stack note: a layered config loader would
// have nothing to layer).
type ConvertOptions struct {
	Driver      DriverMode
	NewLoadAddr uint16 // 0 means "keep the source load address"
}

// Result is everything a successful conversion produces.
type Result struct {
	Output   []byte
	Tables   locate.Tables
	Warnings []string
}

// driverCommonAddrSlots is the address-slot count §6.3's block 0x02 lists
// (19 little-endian u16 addresses); the slots beyond init/play and the
// located tables' base addresses are reserved and left zero.
const driverCommonAddrSlots = 19

// orderVoices mirrors locate.Tables.Orders' array length (one per voice).
const orderVoices = 3

// instrumentRowBytes/waveptrColumnOffset mirror the source instrument row
// layout convert.ConvertInstruments packs from (§3); wave_ptr needs
// validating against the wavetable before conversion discards it, so
// Convert reads it straight out of the raw row rather than through the
// column-major conversion output.
const (
	instrumentRowBytes  = 8
	waveptrColumnOffset = 7
)

// Convert runs the full A-G pipeline against raw source bytes. It is a
// pure function of raw and opts: no shared state survives between calls,
// so concurrent callers each owning their own raw buffer never interfere
// (§5).
func Convert(raw []byte, opts ConvertOptions) (Result, error) {
	var warnings []string

	// A: container parse + memory load.
	parsed, err := sid.Parse(raw)
	if err != nil {
		return Result{}, err
	}
	warnings = append(warnings, parsed.Warnings...)

	// B: player fingerprint, gating everything downstream.
	player := fingerprint.Identify(parsed.Image, parsed.Header.InitAddress)
	if opts.Driver != DriverTarget {
		switch player {
		case fingerprint.LaxityV21:
			// proceed
		case fingerprint.UnknownSF2Exported:
			return Result{}, laxerr.New(laxerr.UnsupportedPlayer, "file already carries an SF2 descriptor chain; retry with --driver target")
		default:
			return Result{}, laxerr.New(laxerr.UnsupportedPlayer, "unrecognised player signature")
		}
	}

	// C: table location (includes the code-classification sweep).
	tables, locWarnings, err := locate.Run(parsed.Image, parsed.Header.InitAddress, parsed.Header.PlayAddress)
	if err != nil {
		return Result{}, err
	}
	warnings = append(warnings, locWarnings...)

	// D/E: sequence decode and table conversion may proceed in any order
	// once C completes (§5); here the instrument, wavetable, pulse and
	// filter tables convert first and the sequences decode after them.
	rawInstruments := parsed.Image.Slice(tables.Instruments.Base, tables.Instruments.Count*instrumentRowBytes)
	for i := 0; i < tables.Instruments.Count; i++ {
		base := i * instrumentRowBytes
		if base+instrumentRowBytes > len(rawInstruments) {
			break
		}
		if verr := convert.ValidateWavePointer(rawInstruments[base+waveptrColumnOffset], tables.Wavetable.Count); verr != nil {
			return Result{}, verr
		}
	}
	convertedInstruments := convert.ConvertInstruments(rawInstruments, tables.Instruments.Count)

	wavetableEntries := readWavetableEntries(parsed.Image, tables.Wavetable)
	convertedWavetable := convert.ConvertWavetable(wavetableEntries)

	pulseEntries := readPulseEntries(parsed.Image, tables.Pulse)
	convertedPulse, pulseWarnings := convert.ConvertPulseTable(pulseEntries)
	warnings = append(warnings, pulseWarnings...)

	filterEntries := readFilterEntries(parsed.Image, tables.Filter)
	convertedFilter, filterWarnings := convert.ConvertFilterTable(filterEntries)
	warnings = append(warnings, filterWarnings...)

	sequenceRows, sequenceStarts, seqWarnings, err := decodeSequences(parsed.Image, tables.Sequences, tables.Instruments.Count)
	if err != nil {
		return Result{}, err
	}
	warnings = append(warnings, seqWarnings...)

	var orderEntries [orderVoices][]convert.OrderEntry
	for v := 0; v < orderVoices; v++ {
		orderEntries[v] = convert.ConvertOrders(decodeOrderList(parsed.Image, tables.Orders[v]))
	}

	newLoad := opts.NewLoadAddr
	if newLoad == 0 {
		newLoad = parsed.Header.LoadAddress
	}
	delta := int32(newLoad) - int32(parsed.Header.LoadAddress)

	// F: pointer relocation, applied to the live image before the driver
	// region is sliced out for emission.
	relocWarnings, err := reloc.Relocate(parsed.Image, parsed.Header.LoadAddress, newLoad)
	if err != nil {
		return Result{}, err
	}
	warnings = append(warnings, relocWarnings...)

	driverLen := int(tables.Instruments.Base) - int(parsed.Header.LoadAddress)
	if driverLen < 0 {
		driverLen = 0
	}
	driverCode := parsed.Image.Slice(parsed.Header.LoadAddress, driverLen)

	wavetableBytes := flattenWavetable(convertedWavetable)
	pulseBytes := flattenPulse(convertedPulse)
	filterBytes := flattenFilter(convertedFilter)
	sequenceBytes := flattenSequenceRows(sequenceRows)
	ordersBytes := flattenOrders(orderEntries)

	// G: descriptor chain + emission. Block addresses (§6.3) must refer to
	// the post-relocation image, i.e. where write.Emit is about to place
	// each table — not tables.*.Base, which is the *source* image address
	// these bytes were read from. The chain's own encoded length feeds
	// into those addresses, so it is built once with placeholder
	// addresses purely to measure its size, then rebuilt for real; the
	// size is identical either way since every address field is a fixed
	// 2-byte slot regardless of its value.
	layout := descriptorLayout{
		driverName:     driverName(player),
		driverSize:     uint16(len(driverCode)),
		initAddr:       uint16(int32(parsed.Header.InitAddress) + delta),
		playAddr:       uint16(int32(parsed.Header.PlayAddress) + delta),
		instrumentRows: tables.Instruments.Count,
		wavetableRows:  tables.Wavetable.Count,
		pulseRows:      tables.Pulse.Count,
		filterRows:     tables.Filter.Count,
		sequenceCount:  len(sequenceStarts),
		sequenceRows:   len(sequenceRows),
		orderRows:      [orderVoices]int{len(orderEntries[0]), len(orderEntries[1]), len(orderEntries[2])},
	}

	placeholderChain, err := buildDescriptorChain(layout, descriptorAddrs{}, make([]uint16, len(sequenceStarts)))
	if err != nil {
		return Result{}, err
	}
	chainLen := len(placeholderChain.Encode())

	addrs := computeDescriptorAddrs(newLoad, len(driverCode), chainLen, len(convertedInstruments), len(wavetableBytes), len(pulseBytes), len(filterBytes), len(sequenceBytes), orderEntryLens(orderEntries))

	// sequence pointers reference whichever row each distinct decoded
	// sequence starts at, scaled by the 5-byte row stride.
	seqPtrs := make([]uint16, len(sequenceStarts))
	for i, start := range sequenceStarts {
		seqPtrs[i] = addrs.sequences + uint16(start*sequenceRowBytes)
	}

	chain, err := buildDescriptorChain(layout, addrs, seqPtrs)
	if err != nil {
		return Result{}, err
	}

	out := write.Emit(write.Input{
		LoadAddress: newLoad,
		DriverCode:  driverCode,
		MagicOffset: -1, // the player's magic word lives inside driverCode at an offset sig-scanned by a future driver descriptor; not yet wired
		Chain:       chain,
		Tables: write.Tables{
			Instruments: convertedInstruments,
			Wavetable:   wavetableBytes,
			Pulse:       pulseBytes,
			Filter:      filterBytes,
			Sequences:   sequenceBytes,
			Orders:      ordersBytes,
		},
	})

	return Result{Output: out, Tables: tables, Warnings: warnings}, nil
}

func readWavetableEntries(img *memimage.Image, loc locate.TableLoc) []convert.WavetableEntry {
	entries := make([]convert.WavetableEntry, loc.Count)
	for i := range entries {
		raw := img.Slice(loc.Base+uint16(i*2), 2)
		entries[i] = convert.WavetableEntry{NoteControl: raw[0], Waveform: raw[1]}
	}
	return entries
}

func readPulseEntries(img *memimage.Image, loc locate.TableLoc) []convert.PulseEntry {
	entries := make([]convert.PulseEntry, loc.Count)
	for i := range entries {
		raw := img.Slice(loc.Base+uint16(i*4), 4)
		entries[i] = convert.PulseEntry{
			Initial:            raw[0],
			Delta:              raw[1],
			DurationDirection:  raw[2],
			NextIndexTimesFour: raw[3],
		}
	}
	return entries
}

func readFilterEntries(img *memimage.Image, loc locate.TableLoc) []convert.FilterEntry {
	entries := make([]convert.FilterEntry, loc.Count)
	for i := range entries {
		raw := img.Slice(loc.Base+uint16(i*4), 4)
		entries[i] = convert.FilterEntry{
			Cutoff:    raw[0],
			Step:      raw[1],
			Duration:  raw[2],
			NextIndex: raw[3],
		}
	}
	return entries
}

// decodeSequences treats loc.Base as a pointer table of little-endian
// stream addresses (the shape locateSequences confirms via its indirect
// LDA ($zp),Y signature) and walks every one of loc.Count slots — up to
// locateSequences's 255-entry cap, not a fixed handful — decoding each
// distinct referenced stream to its own terminator via seqdecode.Decode.
// Zero and repeated pointers are skipped without error; distinctStarts
// reports, in first-reference order, the row offset into rows where each
// distinct sequence begins, so the music-data descriptor block can point
// at it.
func decodeSequences(img *memimage.Image, loc locate.TableLoc, instrumentCount int) (rows []convert.SequenceRow, distinctStarts []int, warnings []string, err error) {
	seenAt := map[uint16]int{}

	for i := 0; i < loc.Count; i++ {
		ptr := img.ReadWord(loc.Base + uint16(i*2))
		if ptr == 0 {
			continue
		}
		if _, ok := seenAt[ptr]; ok {
			continue
		}

		stream := img.Slice(ptr, 0x1000) // generous upper bound; Decode stops at its own terminator
		events, decWarnings, decErr := seqdecode.Decode(stream, instrumentCount)
		if decErr != nil {
			return nil, nil, warnings, decErr
		}
		warnings = append(warnings, decWarnings...)

		seenAt[ptr] = len(rows)
		distinctStarts = append(distinctStarts, len(rows))
		rows = append(rows, convert.ConvertSequenceEvents(events)...)
	}

	return rows, distinctStarts, warnings, nil
}

const orderEntryTerminator = 0xFF

// decodeOrderList reads loc.Count (transpose, sequence_index) pairs
// starting at loc.Base; the locator already scanned forward to the
// end-of-list marker to determine Count.
func decodeOrderList(img *memimage.Image, loc locate.TableLoc) []convert.OrderEntry {
	entries := make([]convert.OrderEntry, loc.Count)
	for i := range entries {
		raw := img.Slice(loc.Base+uint16(i*2), 2)
		entries[i] = convert.OrderEntry{Transpose: raw[0], SequenceIndex: raw[1]}
	}
	return entries
}

func flattenWavetable(entries [][2]byte) []byte {
	out := make([]byte, len(entries)*2)
	for i, e := range entries {
		out[i*2] = e[0]
		out[i*2+1] = e[1]
	}
	return out
}

func flattenPulse(entries []convert.PulseEntry) []byte {
	out := make([]byte, len(entries)*4)
	for i, e := range entries {
		out[i*4] = e.Initial
		out[i*4+1] = e.Delta
		out[i*4+2] = e.DurationDirection
		out[i*4+3] = e.NextIndexTimesFour
	}
	return out
}

func flattenFilter(entries []convert.TargetFilterEntry) []byte {
	out := make([]byte, len(entries)*3)
	for i, e := range entries {
		out[i*3] = e.CutoffLow3
		out[i*3+1] = e.CutoffHigh8
		out[i*3+2] = e.NextIndex
	}
	return out
}

// flattenOrders concatenates each voice's entries followed by a
// terminator pair, in voice order — the layout decodeOrderList's
// counterpart on the read side expects.
func flattenOrders(perVoice [orderVoices][]convert.OrderEntry) []byte {
	var out []byte
	for _, entries := range perVoice {
		for _, e := range entries {
			out = append(out, e.Transpose, e.SequenceIndex)
		}
		out = append(out, orderEntryTerminator, 0x00)
	}
	return out
}

func flattenSequenceRows(rows []convert.SequenceRow) []byte {
	out := make([]byte, len(rows)*5)
	for i, r := range rows {
		sustain := byte(0)
		if r.Sustain {
			sustain = 1
		}
		out[i*5] = r.Instrument
		out[i*5+1] = r.Command
		out[i*5+2] = r.CmdParam
		out[i*5+3] = sustain
		out[i*5+4] = r.Note
	}
	return out
}
