package laxity2sf2

import (
	"github.com/sidforge/laxity2sf2/convert"
	"github.com/sidforge/laxity2sf2/descriptor"
	"github.com/sidforge/laxity2sf2/fingerprint"
)

// targetInstrumentColumnsWire mirrors convert's unexported
// targetInstrumentColumns (attack_decay, sustain_release, flags,
// filter_byte, filter_ptr, pulse_ptr) for the driver-tables descriptor's
// column count — convert doesn't export its internal layout constant, so
// the wire-format value is restated here rather than reached into.
const targetInstrumentColumnsWire = 6

// sequenceRowBytes mirrors the target sequence row stride
// flattenSequenceRows packs (instrument, command, cmd_param, sustain,
// note).
const sequenceRowBytes = 5

const (
	driverTypeCode       byte = 0x01
	tableTypeGeneric     byte = 0x00
	tableTypeInstruments byte = 0x80
)

// column kinds for block 0x04, in the order ConvertInstruments packs its
// target columns.
const (
	colKindAttackDecay byte = iota
	colKindSustainRelease
	colKindFlags
	colKindFilterByte
	colKindFilterPtr
	colKindPulsePtr
)

// descriptorLayout is everything about the descriptor chain's shape that
// does not depend on where the writer ultimately places each table —
// row counts, names, and the driver's own init/play addresses (already
// shifted by the relocation delta, since those are plain data fields
// here, not code operands reloc.Relocate touches).
type descriptorLayout struct {
	driverName     string
	driverSize     uint16
	initAddr       uint16
	playAddr       uint16
	instrumentRows int
	wavetableRows  int
	pulseRows      int
	filterRows     int
	sequenceCount  int // distinct decoded sequences
	sequenceRows   int // total rows across all decoded sequences (table extent)
	orderRows      [orderVoices]int
}

// descriptorAddrs is the post-relocation base address of every table the
// chain references. The zero value is the placeholder used to measure
// the chain's encoded length before the real addresses are known.
type descriptorAddrs struct {
	instruments uint16
	wavetable   uint16
	pulse       uint16
	filter      uint16
	sequences   uint16
	orders      [orderVoices]uint16
}

// orderEntryLens reports each voice's flattened byte length (entries*2
// plus a 2-byte terminator), matching flattenOrders' layout.
func orderEntryLens(perVoice [orderVoices][]convert.OrderEntry) [orderVoices]int {
	var lens [orderVoices]int
	for i, entries := range perVoice {
		lens[i] = len(entries)*2 + 2
	}
	return lens
}

// computeDescriptorAddrs lays tables out contiguously after the driver
// code and descriptor chain, in the exact order write.Emit concatenates
// them (§4.G step 5-6).
func computeDescriptorAddrs(newLoad uint16, driverLen, chainLen, instrumentsLen, wavetableLen, pulseLen, filterLen, sequencesLen int, orderLens [orderVoices]int) descriptorAddrs {
	cursor := int32(newLoad) + int32(driverLen) + int32(chainLen)

	var addrs descriptorAddrs
	addrs.instruments = uint16(cursor)
	cursor += int32(instrumentsLen)
	addrs.wavetable = uint16(cursor)
	cursor += int32(wavetableLen)
	addrs.pulse = uint16(cursor)
	cursor += int32(pulseLen)
	addrs.filter = uint16(cursor)
	cursor += int32(filterLen)
	addrs.sequences = uint16(cursor)
	cursor += int32(sequencesLen)
	for v := 0; v < orderVoices; v++ {
		addrs.orders[v] = uint16(cursor)
		cursor += int32(orderLens[v])
	}
	return addrs
}

func appendU16LE(out []byte, v uint16) []byte {
	return append(out, byte(v), byte(v>>8))
}

func driverName(player fingerprint.Player) string {
	if player == fingerprint.LaxityV21 {
		return "Laxity NewPlayer v21"
	}
	return "Laxity NewPlayer v21 (forced)"
}

func driverDescriptorPayload(name string, totalSize uint16) []byte {
	out := []byte{driverTypeCode}
	out = appendU16LE(out, totalSize)
	out = append(out, []byte(name)...)
	return append(out, 0)
}

// driverCommonPayload packs §6.3's block 0x02: address slots, a
// trigger-sync byte, and three reserved bytes. Slots beyond init/play, the
// five table bases and the three order-list bases are unused state
// pointers and stay zero.
func driverCommonPayload(l descriptorLayout, a descriptorAddrs) []byte {
	var slots [driverCommonAddrSlots]uint16
	slots[0] = l.initAddr
	slots[1] = l.playAddr
	slots[2] = a.instruments
	slots[3] = a.wavetable
	slots[4] = a.pulse
	slots[5] = a.filter
	slots[6] = a.sequences
	slots[7] = a.orders[0]
	slots[8] = a.orders[1]
	slots[9] = a.orders[2]

	out := make([]byte, 0, driverCommonAddrSlots*2+4)
	for _, s := range slots {
		out = appendU16LE(out, s)
	}
	out = append(out, 0)       // trigger-sync byte
	return append(out, 0, 0, 0) // reserved
}

type tableDescriptor struct {
	Type byte
	ID   byte
	Name string
	Layout, Flags, InsertRule, EnterRule, ColorRule byte
	Addr, Cols, Rows                                uint16
}

func encodeTableDescriptor(t tableDescriptor) []byte {
	name := []byte(t.Name)
	out := make([]byte, 0, 9+len(name)+6)
	out = append(out, t.Type, t.ID, byte(len(name)))
	out = append(out, name...)
	out = append(out, t.Layout, t.Flags, t.InsertRule, t.EnterRule, t.ColorRule)
	out = appendU16LE(out, t.Addr)
	out = appendU16LE(out, t.Cols)
	out = appendU16LE(out, t.Rows)
	return out
}

func driverTablesPayload(l descriptorLayout, a descriptorAddrs) []byte {
	tables := []tableDescriptor{
		{Type: tableTypeInstruments, ID: 0, Name: "Instruments", Addr: a.instruments, Cols: targetInstrumentColumnsWire, Rows: uint16(l.instrumentRows)},
		{Type: tableTypeGeneric, ID: 1, Name: "Wavetable", Addr: a.wavetable, Cols: 2, Rows: uint16(l.wavetableRows)},
		{Type: tableTypeGeneric, ID: 2, Name: "Pulse", Addr: a.pulse, Cols: 4, Rows: uint16(l.pulseRows)},
		{Type: tableTypeGeneric, ID: 3, Name: "Filter", Addr: a.filter, Cols: 3, Rows: uint16(l.filterRows)},
		{Type: tableTypeGeneric, ID: 4, Name: "Sequences", Addr: a.sequences, Cols: sequenceRowBytes, Rows: uint16(l.sequenceRows)},
		{Type: tableTypeGeneric, ID: 5, Name: "Order 1", Addr: a.orders[0], Cols: 2, Rows: uint16(l.orderRows[0])},
		{Type: tableTypeGeneric, ID: 6, Name: "Order 2", Addr: a.orders[1], Cols: 2, Rows: uint16(l.orderRows[1])},
		{Type: tableTypeGeneric, ID: 7, Name: "Order 3", Addr: a.orders[2], Cols: 2, Rows: uint16(l.orderRows[2])},
	}
	var out []byte
	for _, t := range tables {
		out = append(out, encodeTableDescriptor(t)...)
	}
	return out
}

func instrumentDescriptorPayload() []byte {
	cols := []byte{colKindAttackDecay, colKindSustainRelease, colKindFlags, colKindFilterByte, colKindFilterPtr, colKindPulsePtr}
	out := []byte{byte(len(cols))}
	return append(out, cols...)
}

func musicDataPayload(trackCount, sequenceCount int, orderPtrs [orderVoices]uint16, seqPtrs []uint16) []byte {
	out := []byte{byte(trackCount), byte(sequenceCount)}
	for _, p := range orderPtrs {
		out = appendU16LE(out, p)
	}
	for _, p := range seqPtrs {
		out = appendU16LE(out, p)
	}
	return out
}

// buildDescriptorChain assembles all five wire-contract blocks (§6.3).
// seqPtrs must have length l.sequenceCount; the caller passes a
// zero-valued slice of that length when measuring the placeholder chain.
func buildDescriptorChain(l descriptorLayout, a descriptorAddrs, seqPtrs []uint16) (*descriptor.Chain, error) {
	chain := &descriptor.Chain{}
	if err := chain.Add(descriptor.IDDriverDescriptor, driverDescriptorPayload(l.driverName, l.driverSize)); err != nil {
		return nil, err
	}
	if err := chain.Add(descriptor.IDDriverCommon, driverCommonPayload(l, a)); err != nil {
		return nil, err
	}
	if err := chain.Add(descriptor.IDDriverTables, driverTablesPayload(l, a)); err != nil {
		return nil, err
	}
	if err := chain.Add(descriptor.IDInstrumentDesc, instrumentDescriptorPayload()); err != nil {
		return nil, err
	}
	if err := chain.Add(descriptor.IDMusicData, musicDataPayload(orderVoices, l.sequenceCount, a.orders, seqPtrs)); err != nil {
		return nil, err
	}
	return chain, nil
}
