// Package crc implements the masked CRC-32C used to protect log records.
//
// The stored checksum is not the raw CRC: it is rotated and offset by a fixed
// constant so that checksumming a region that itself embeds checksums does not
// degenerate. The masking must match the on-disk format bit for bit.
package crc

import "hash/crc32"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// maskDelta is the constant added after rotation when masking a CRC.
const maskDelta = 0xa282ead8

// Checksum returns the raw (unmasked) CRC-32C of b.
func Checksum(b []byte) uint32 {
	return crc32.Checksum(b, castagnoli)
}

// Mask converts a raw CRC into its stored form: rotate right by 15 bits, then
// add maskDelta mod 2^32.
func Mask(sum uint32) uint32 {
	return ((sum >> 15) | (sum << 17)) + maskDelta
}

// Unmask inverts Mask.
func Unmask(masked uint32) uint32 {
	rot := masked - maskDelta
	return (rot >> 17) | (rot << 15)
}

// Valid reports whether masked is the stored checksum for b.
func Valid(b []byte, masked uint32) bool {
	return Mask(Checksum(b)) == masked
}
