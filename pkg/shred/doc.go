// Package shred parses the identity of Solana shreds from raw UDP payloads.
//
// A shred is the unit Solana leaders use to propagate block data. Every
// shred, regardless of variant, starts with a common header:
//
//	[Signature(64)][Variant(1)][Slot(8)][Index(4)][Version(2)][FECSetIndex(4)]
//
// Fields:
//   - Signature: 64-byte Ed25519 signature over the rest of the shred
//   - Variant: 1 byte selecting the shred family (legacy or merkle, data or code)
//   - Slot: 64-bit slot number (little-endian)
//   - Index: 32-bit shred index within the slot (little-endian)
//   - Version: 16-bit shred version (little-endian)
//   - FECSetIndex: 32-bit forward-error-correction set index (little-endian)
//
// The common header is 83 bytes. This package only needs the identity of a
// shred, which is the (Slot, Index) pair: two shreds carrying the same slot
// and index are the same shred no matter which network path delivered them.
//
// ParseID validates the variant byte and the minimum length, then extracts
// the identity. It never inspects the payload past the common header, so
// data shreds, code shreds and merkle shreds are all handled the same way.
//
// Encode builds a minimal well-formed shred around an identity. It exists
// for traffic generators and tests; real shreds come off the wire.
package shred
