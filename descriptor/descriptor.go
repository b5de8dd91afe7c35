// Package descriptor builds the target container's descriptor-block
// chain: a sequence of {id, size, payload} records terminated by an
// id=0xFF sentinel, as specified in §6.3.
//
// Grounded on musclesoft-nin64k/tools/forge/serialize/layout.go's named
// fixed-offset constants, generalized from the teacher's single
// fixed-layout output (every field lives at a constant offset because the
// teacher's target format has no header chain at all) into a
// length-prefixed, self-describing chain — the structural feature the
// target format actually needs that the teacher's simpler format doesn't.
package descriptor

import "github.com/sidforge/laxity2sf2/laxerr"

// Block identities from §6.3.
const (
	IDDriverDescriptor byte = 0x01
	IDDriverCommon     byte = 0x02
	IDDriverTables     byte = 0x03
	IDInstrumentDesc   byte = 0x04
	IDMusicData        byte = 0x05
	IDEnd              byte = 0xFF
)

// MaxPayload is the size-byte's ceiling; a single block's payload can
// never exceed this (§4.G's size budget).
const MaxPayload = 255

// Block is one descriptor-chain record.
type Block struct {
	ID      byte
	Payload []byte
}

// Chain is an ordered sequence of blocks, always terminated by IDEnd on
// encode.
type Chain struct {
	Blocks []Block
}

// Add appends a block, splitting its payload across multiple IDDriverTables
// records if it exceeds MaxPayload and the id permits a continuation
// chain; any other id whose payload overflows is rejected outright since
// the wire format has no continuation convention for it (§4.G).
func (c *Chain) Add(id byte, payload []byte) error {
	if len(payload) <= MaxPayload {
		c.Blocks = append(c.Blocks, Block{ID: id, Payload: payload})
		return nil
	}
	if id != IDDriverTables {
		return laxerr.New(laxerr.DescriptorBlockTooLarge, "block id 0x%02X payload %d bytes exceeds %d-byte cap", id, len(payload), MaxPayload)
	}
	for off := 0; off < len(payload); off += MaxPayload {
		end := off + MaxPayload
		if end > len(payload) {
			end = len(payload)
		}
		c.Blocks = append(c.Blocks, Block{ID: id, Payload: payload[off:end]})
	}
	return nil
}

// Encode serializes the chain, appending the id=0xFF terminator.
func (c *Chain) Encode() []byte {
	var out []byte
	for _, b := range c.Blocks {
		out = append(out, b.ID, byte(len(b.Payload)))
		out = append(out, b.Payload...)
	}
	out = append(out, IDEnd, 0)
	return out
}

// Decode parses a previously-encoded chain back into blocks, stopping at
// the terminator. Used by the descriptor round-trip tests and the
// full-pipeline fixture test.
func Decode(data []byte) (*Chain, error) {
	c := &Chain{}
	pos := 0
	for {
		if pos+2 > len(data) {
			return nil, laxerr.New(laxerr.DescriptorBlockTooLarge, "truncated descriptor chain at offset %d", pos)
		}
		id := data[pos]
		size := int(data[pos+1])
		pos += 2
		if id == IDEnd {
			return c, nil
		}
		if pos+size > len(data) {
			return nil, laxerr.New(laxerr.DescriptorBlockTooLarge, "block 0x%02X declares %d bytes past end of data", id, size)
		}
		payload := make([]byte, size)
		copy(payload, data[pos:pos+size])
		c.Blocks = append(c.Blocks, Block{ID: id, Payload: payload})
		pos += size
	}
}
