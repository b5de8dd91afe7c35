// Package sid parses PSID/RSID container files and loads their payload
// into a memimage.Image ready for fingerprinting, table location, and
// relocation.
//
// Grounded on IntuitionAmiga-IntuitionEngine/sid_parser.go's header layout
// and embedded-load-address handling, generalized in one direction this
// module needs that the original did not: malformed text fields (Name,
// Author, Released) are warned about and sanitized rather than treated as
// a parse failure, since uncurated archives of these files routinely carry
// stray high-bit or control bytes in those fields and the driver bytes
// that matter to this module live entirely outside them.
package sid

import (
	"encoding/binary"
	"strings"

	"github.com/sidforge/laxity2sf2/laxerr"
	"github.com/sidforge/laxity2sf2/memimage"
)

// Header holds the fields of a PSID/RSID header this module cares about.
// Sid2Addr/Sid3Addr (multi-SID files) are deliberately absent: Laxity
// NewPlayer v21 tunes are always single-SID, and a file declaring a second
// or third SID chip is, by construction, not one this module supports.
type Header struct {
	Magic       string
	Version     uint16
	IsRSID      bool
	LoadAddress uint16
	InitAddress uint16
	PlayAddress uint16
	Songs       uint16
	StartSong   uint16
	Name        string
	Author      string
	Released    string
	Flags       uint16
}

// File is a parsed container: its header plus the loaded memory image.
type File struct {
	Header   Header
	Image    *memimage.Image
	Warnings []string
}

const minHeaderLen = 0x76

// Parse decodes raw PSID/RSID bytes and loads the payload into a fresh
// memimage.Image at the file's load address.
func Parse(raw []byte) (*File, error) {
	if len(raw) < minHeaderLen {
		return nil, laxerr.New(laxerr.UnrecognisedContainer, "file too short for a SID header (%d bytes)", len(raw))
	}

	magic := string(raw[:4])
	var isRSID bool
	switch magic {
	case "PSID":
		isRSID = false
	case "RSID":
		isRSID = true
	default:
		return nil, laxerr.New(laxerr.UnrecognisedContainer, "unrecognised magic %q", magic)
	}

	var warnings []string
	h := Header{Magic: magic, IsRSID: isRSID}
	h.Version = binary.BigEndian.Uint16(raw[0x04:0x06])
	dataOffset := binary.BigEndian.Uint16(raw[0x06:0x08])
	h.LoadAddress = binary.BigEndian.Uint16(raw[0x08:0x0A])
	h.InitAddress = binary.BigEndian.Uint16(raw[0x0A:0x0C])
	h.PlayAddress = binary.BigEndian.Uint16(raw[0x0C:0x0E])
	h.Songs = binary.BigEndian.Uint16(raw[0x0E:0x10])
	h.StartSong = binary.BigEndian.Uint16(raw[0x10:0x12])

	name, nameField := parseTextField(raw[0x16:0x36], "name")
	h.Name, warnings = appendWarn(warnings, name, nameField)
	author, authorField := parseTextField(raw[0x36:0x56], "author")
	h.Author, warnings = appendWarn(warnings, author, authorField)
	released, releasedField := parseTextField(raw[0x56:0x76], "released")
	h.Released, warnings = appendWarn(warnings, released, releasedField)

	if dataOffset >= 0x78 && len(raw) >= 0x78 {
		h.Flags = binary.BigEndian.Uint16(raw[0x76:0x78])
	}

	if dataOffset == 0 || int(dataOffset) > len(raw) {
		return nil, laxerr.New(laxerr.UnrecognisedContainer, "invalid data offset 0x%04X", dataOffset)
	}

	dataStart := int(dataOffset)
	if h.LoadAddress == 0 {
		if dataStart+2 > len(raw) {
			return nil, laxerr.New(laxerr.UnrecognisedContainer, "missing embedded load address")
		}
		h.LoadAddress = binary.LittleEndian.Uint16(raw[dataStart : dataStart+2])
		dataStart += 2
	}
	if dataStart > len(raw) {
		return nil, laxerr.New(laxerr.UnrecognisedContainer, "data offset beyond file length")
	}

	img := memimage.New()
	if err := img.Load(h.LoadAddress, raw[dataStart:]); err != nil {
		return nil, err
	}

	return &File{Header: h, Image: img, Warnings: warnings}, nil
}

// parseTextField trims at the first NUL and right-trims spaces, same as
// the grounding example; it additionally replaces any remaining non-ASCII-
// printable character with '?' and reports the field name so Convert can
// surface it as a warning instead of silently mangling text or
// failing outright.
func parseTextField(data []byte, field string) (string, string) {
	end := len(data)
	for i, b := range data {
		if b == 0 {
			end = i
			break
		}
	}
	trimmed := strings.TrimRight(string(data[:end]), " ")

	var b strings.Builder
	replaced := 0
	for _, r := range trimmed {
		if r < 0x20 || r > 0x7E {
			b.WriteByte('?')
			replaced++
			continue
		}
		b.WriteRune(r)
	}
	if replaced == 0 {
		return trimmed, ""
	}
	return b.String(), field
}

func appendWarn(warnings []string, value, field string) (string, []string) {
	if field == "" {
		return value, warnings
	}
	return value, append(warnings, "sid: "+field+" field contained non-printable bytes, replaced with '?'")
}
