package shred

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Common header layout, offsets in bytes.
const (
	signatureLen  = 64
	variantOffset = signatureLen
	slotOffset    = variantOffset + 1
	indexOffset   = slotOffset + 8
	versionOffset = indexOffset + 4
	fecSetOffset  = versionOffset + 2

	// HeaderLen is the size of the common header shared by all shred
	// variants. Packets shorter than this cannot carry an identity.
	HeaderLen = fecSetOffset + 4
)

// Legacy variants are full bytes; merkle variants encode the family in the
// high nibble and the merkle proof depth in the low nibble.
const (
	variantLegacyCode = 0x5a
	variantLegacyData = 0xa5
)

// ErrMalformed is returned when a packet is too short to hold the common
// header or carries an unknown variant byte.
var ErrMalformed = errors.New("malformed shred")

// ID is the identity of a shred. Two packets with equal IDs carry the same
// shred, so ID is usable as a map key.
type ID struct {
	Slot  uint64
	Index uint32
}

// String renders the identity as "slot/index".
func (id ID) String() string {
	return fmt.Sprintf("%d/%d", id.Slot, id.Index)
}

// ParseID extracts the identity from a raw shred packet. The packet must be
// at least HeaderLen bytes and carry a known variant; anything else yields
// an error wrapping ErrMalformed.
func ParseID(packet []byte) (ID, error) {
	if len(packet) < HeaderLen {
		return ID{}, fmt.Errorf("%w: %d bytes, common header needs %d", ErrMalformed, len(packet), HeaderLen)
	}
	if !knownVariant(packet[variantOffset]) {
		return ID{}, fmt.Errorf("%w: unknown variant 0x%02x", ErrMalformed, packet[variantOffset])
	}
	return ID{
		Slot:  binary.LittleEndian.Uint64(packet[slotOffset:]),
		Index: binary.LittleEndian.Uint32(packet[indexOffset:]),
	}, nil
}

func knownVariant(v byte) bool {
	if v == variantLegacyCode || v == variantLegacyData {
		return true
	}
	switch v >> 4 {
	// Merkle code shreds: plain, chained, chained+resigned.
	case 0x4, 0x6, 0x7:
		return true
	// Merkle data shreds: plain, chained, chained+resigned.
	case 0x8, 0x9, 0xb:
		return true
	}
	return false
}

// Encode builds a minimal legacy data shred carrying the given identity and
// payload. The signature, version and FEC set index are left zeroed.
func Encode(id ID, payload []byte) []byte {
	packet := make([]byte, HeaderLen+len(payload))
	packet[variantOffset] = variantLegacyData
	binary.LittleEndian.PutUint64(packet[slotOffset:], id.Slot)
	binary.LittleEndian.PutUint32(packet[indexOffset:], id.Index)
	copy(packet[HeaderLen:], payload)
	return packet
}
