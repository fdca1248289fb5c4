package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/litescript/ls-galaxy/internal/galaxy"
)

// Binary buffer file layout, little-endian:
//
//	magic   [4]byte "LSGB"
//	version uint16
//	flags   uint16 (reserved, zero)
//	stars   uint32
//	gas     uint32
//	star arrays: positions, colors, sizes, randoms, intensities, angles
//	             (float32), zones, classes (uint8)
//	gas arrays:  positions, colors, densities, randoms, intensities, angles
//	             (float32)
const (
	bufferMagic   = "LSGB"
	BufferVersion = 1

	// maxBufferCount guards allocations when reading untrusted headers.
	maxBufferCount = 1 << 24
)

// Buffer file errors.
var (
	ErrBadMagic           = errors.New("not a galaxy buffer file")
	ErrUnsupportedVersion = errors.New("unsupported buffer file version")
	ErrCountTooLarge      = errors.New("buffer count too large")
)

type bufferHeader struct {
	Magic   [4]byte
	Version uint16
	Flags   uint16
	Stars   uint32
	Gas     uint32
}

// WriteBuffers writes the cloud's flat buffers in the binary layout.
func WriteBuffers(w io.Writer, cloud *galaxy.Cloud) error {
	stars := cloud.Buffers()
	gas := cloud.GasBuffers()

	bw := bufio.NewWriter(w)
	h := bufferHeader{
		Version: BufferVersion,
		Stars:   uint32(stars.Len()),
		Gas:     uint32(gas.Len()),
	}
	copy(h.Magic[:], bufferMagic)

	parts := []any{
		h,
		stars.Positions, stars.Colors, stars.Sizes, stars.Randoms,
		stars.Intensities, stars.Angles, stars.Zones, stars.Classes,
		gas.Positions, gas.Colors, gas.Densities, gas.Randoms,
		gas.Intensities, gas.Angles,
	}
	for _, p := range parts {
		if err := binary.Write(bw, binary.LittleEndian, p); err != nil {
			return fmt.Errorf("write buffers: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write buffers: %w", err)
	}
	return nil
}

// ReadBuffers decodes a file written by WriteBuffers.
func ReadBuffers(r io.Reader) (galaxy.StarBuffers, galaxy.GasBuffers, error) {
	var (
		h     bufferHeader
		stars galaxy.StarBuffers
		gas   galaxy.GasBuffers
	)
	br := bufio.NewReader(r)
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return stars, gas, fmt.Errorf("read buffer header: %w", err)
	}
	if string(h.Magic[:]) != bufferMagic {
		return stars, gas, ErrBadMagic
	}
	if h.Version != BufferVersion {
		return stars, gas, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Stars > maxBufferCount || h.Gas > maxBufferCount {
		return stars, gas, fmt.Errorf("%w: %d stars, %d gas", ErrCountTooLarge, h.Stars, h.Gas)
	}

	n, g := int(h.Stars), int(h.Gas)
	stars = galaxy.StarBuffers{
		Positions:   make([]float32, 3*n),
		Colors:      make([]float32, 3*n),
		Sizes:       make([]float32, n),
		Randoms:     make([]float32, 3*n),
		Intensities: make([]float32, n),
		Angles:      make([]float32, n),
		Zones:       make([]uint8, n),
		Classes:     make([]uint8, n),
	}
	gas = galaxy.GasBuffers{
		Positions:   make([]float32, 3*g),
		Colors:      make([]float32, 3*g),
		Densities:   make([]float32, g),
		Randoms:     make([]float32, 3*g),
		Intensities: make([]float32, g),
		Angles:      make([]float32, g),
	}

	parts := []any{
		stars.Positions, stars.Colors, stars.Sizes, stars.Randoms,
		stars.Intensities, stars.Angles, stars.Zones, stars.Classes,
		gas.Positions, gas.Colors, gas.Densities, gas.Randoms,
		gas.Intensities, gas.Angles,
	}
	for _, p := range parts {
		if err := binary.Read(br, binary.LittleEndian, p); err != nil {
			return galaxy.StarBuffers{}, galaxy.GasBuffers{}, fmt.Errorf("read buffers: %w", err)
		}
	}
	return stars, gas, nil
}
