// Package cell defines the tagged 32-bit heap word (spec §3.2) the
// Machine Runtime operates on. Tag extraction is two shifts and a mask;
// unlike the bit-packed Z80 flag byte this is grounded on (which earns
// a precomputed lookup table because flag arithmetic is combinatorial),
// a Cell's tag decode is cheap enough that no table is worth building —
// see DESIGN.md.
package cell

import "fmt"

// Tag identifies which of the four cell shapes a Cell holds.
type Tag uint32

const (
	TagREF Tag = iota
	TagSTR
	TagCON
	TagLIS
)

const (
	tagBits   = 2
	tagShift  = 32 - tagBits
	tagMask   = uint32(0x3) << tagShift
	payloadMask = ^tagMask
)

// Cell is one addressable heap/stack word: a 2-bit tag plus a 30-bit
// payload (spec §3.2).
type Cell uint32

// New packs a tag and payload into a Cell. Payload must fit in 30 bits.
func New(t Tag, payload uint32) Cell {
	return Cell((uint32(t) << tagShift) | (payload & payloadMask))
}

// Ref builds a REF cell pointing at address a.
func Ref(a int) Cell { return New(TagREF, uint32(a)) }

// Str builds a STR cell pointing at the functor header address a.
func Str(a int) Cell { return New(TagSTR, uint32(a)) }

// Con builds a CON cell for the interned atom id.
func Con(nameID int) Cell { return New(TagCON, uint32(nameID)) }

// Lis builds a LIS cell pointing at the car/cdr pair address a.
func Lis(a int) Cell { return New(TagLIS, uint32(a)) }

// Tag extracts the cell's tag.
func (c Cell) Tag() Tag { return Tag((uint32(c) & tagMask) >> tagShift) }

// Payload extracts the cell's 30-bit payload as an int.
func (c Cell) Payload() int { return int(uint32(c) & payloadMask) }

// IsRef reports whether c is a REF cell.
func (c Cell) IsRef() bool { return c.Tag() == TagREF }

func (c Cell) String() string {
	switch c.Tag() {
	case TagREF:
		return fmt.Sprintf("REF(%d)", c.Payload())
	case TagSTR:
		return fmt.Sprintf("STR(%d)", c.Payload())
	case TagCON:
		return fmt.Sprintf("CON(%d)", c.Payload())
	case TagLIS:
		return fmt.Sprintf("LIS(%d)", c.Payload())
	default:
		return "?"
	}
}

// FunctorHeader is the raw 32-bit encoding of (nameID, arity) stored at
// STR-target addresses and in put_struc/get_struc operands (spec §3.2,
// §6): (nameID<<8)|arity, matching the wire format little-endian when
// serialized to code bytes (see package inst).
type FunctorHeader uint32

// PackFunctorHeader builds a header from a name id and arity.
func PackFunctorHeader(nameID, arity int) FunctorHeader {
	return FunctorHeader((uint32(nameID) << 8) | (uint32(arity) & 0xFF))
}

// NameID extracts the interned name id from a functor header.
func (h FunctorHeader) NameID() int { return int(uint32(h) >> 8) }

// Arity extracts the arity from a functor header.
func (h FunctorHeader) Arity() int { return int(uint32(h) & 0xFF) }

func (h FunctorHeader) String() string {
	return fmt.Sprintf("%d/%d", h.NameID(), h.Arity())
}
