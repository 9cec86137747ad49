package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/contactbook/codec"
	"github.com/hupe1980/contactbook/internal/hash"
	"github.com/hupe1980/contactbook/model"
)

// ErrCorruptSnapshot is returned when a snapshot blob cannot be decoded.
var ErrCorruptSnapshot = errors.New("store: corrupt snapshot")

// Snapshot layout:
//
//	magic      [7]byte "CBSNAP1"
//	codecLen   uint8, codec name
//	compLen    uint8, compressor name
//	checksum   uint32 LE, CRC32C of payload
//	payload    compressor(codec(snapshotDoc))
const snapshotMagic = "CBSNAP1"

type snapshotDoc struct {
	NextID   model.ID        `json:"next_id"`
	Contacts []model.Contact `json:"contacts"`
}

func encodeSnapshot(doc snapshotDoc, c codec.Codec, comp codec.Compressor) ([]byte, error) {
	raw, err := c.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: encode snapshot: %w", err)
	}
	payload, err := comp.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("store: compress snapshot: %w", err)
	}

	cn, zn := c.Name(), comp.Name()
	buf := make([]byte, 0, len(snapshotMagic)+2+len(cn)+len(zn)+4+len(payload))
	buf = append(buf, snapshotMagic...)
	buf = append(buf, byte(len(cn)))
	buf = append(buf, cn...)
	buf = append(buf, byte(len(zn)))
	buf = append(buf, zn...)
	buf = binary.LittleEndian.AppendUint32(buf, hash.CRC32C(payload))
	buf = append(buf, payload...)
	return buf, nil
}

func decodeSnapshot(data []byte) (snapshotDoc, error) {
	var doc snapshotDoc

	if len(data) < len(snapshotMagic) || string(data[:len(snapshotMagic)]) != snapshotMagic {
		return doc, fmt.Errorf("%w: bad magic", ErrCorruptSnapshot)
	}
	rest := data[len(snapshotMagic):]

	readName := func() (string, error) {
		if len(rest) < 1 || len(rest) < 1+int(rest[0]) {
			return "", fmt.Errorf("%w: truncated header", ErrCorruptSnapshot)
		}
		n := int(rest[0])
		name := string(rest[1 : 1+n])
		rest = rest[1+n:]
		return name, nil
	}

	codecName, err := readName()
	if err != nil {
		return doc, err
	}
	compName, err := readName()
	if err != nil {
		return doc, err
	}
	if len(rest) < 4 {
		return doc, fmt.Errorf("%w: truncated header", ErrCorruptSnapshot)
	}
	sum := binary.LittleEndian.Uint32(rest)
	payload := rest[4:]

	if hash.CRC32C(payload) != sum {
		return doc, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}

	c, ok := codec.ByName(codecName)
	if !ok {
		return doc, fmt.Errorf("%w: unknown codec %q", ErrCorruptSnapshot, codecName)
	}
	comp, ok := codec.CompressorByName(compName)
	if !ok {
		return doc, fmt.Errorf("%w: unknown compressor %q", ErrCorruptSnapshot, compName)
	}

	raw, err := comp.Decompress(payload)
	if err != nil {
		return doc, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := c.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return doc, nil
}
