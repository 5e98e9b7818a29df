package replay

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
)

// Frame layout: magic(4) | version(1) | kind(1) | length(4, big endian) | gob payload.
const (
	frameMagic   = "AGRP"
	FrameVersion = 1
	headerSize   = 10

	// MaxPayload bounds the payload a reader will accept.
	MaxPayload = 256 << 20
)

type frameKind uint8

const (
	kindEmpty frameKind = iota
	kindRecord
	kindRecords
)

var (
	// ErrNoRecord reports that the server had nothing to send.
	ErrNoRecord = errors.New("replay: no record available")

	// ErrBadFrame reports malformed, truncated or unsupported data.
	ErrBadFrame = errors.New("replay: malformed frame")
)

// EncodeRecord builds a frame carrying one record; nil gives an empty frame.
func EncodeRecord(rec *Record) ([]byte, error) {
	if rec == nil {
		return encodeFrame(kindEmpty, nil)
	}
	return encodeFrame(kindRecord, rec)
}

// EncodeRecords builds a frame carrying a list of records.
func EncodeRecords(recs []*Record) ([]byte, error) {
	if len(recs) == 0 {
		return encodeFrame(kindEmpty, nil)
	}
	return encodeFrame(kindRecords, recs)
}

func encodeFrame(kind frameKind, v any) ([]byte, error) {
	var payload bytes.Buffer
	if v != nil {
		if err := gob.NewEncoder(&payload).Encode(v); err != nil {
			return nil, fmt.Errorf("replay: cannot encode record: %w", err)
		}
	}
	if payload.Len() > MaxPayload {
		return nil, fmt.Errorf("replay: record too large (%d bytes)", payload.Len())
	}

	frame := make([]byte, headerSize, headerSize+payload.Len())
	copy(frame, frameMagic)
	frame[4] = FrameVersion
	frame[5] = byte(kind)
	binary.BigEndian.PutUint32(frame[6:], uint32(payload.Len()))
	return append(frame, payload.Bytes()...), nil
}

// DecodeFrame parses a complete frame. An empty frame yields ErrNoRecord;
// anything malformed yields an error wrapping ErrBadFrame.
func DecodeFrame(data []byte) ([]*Record, error) {
	if len(data) == 0 {
		return nil, ErrNoRecord
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: short header (%d bytes)", ErrBadFrame, len(data))
	}
	if string(data[:4]) != frameMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadFrame)
	}
	if data[4] != FrameVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFrame, data[4])
	}
	size := binary.BigEndian.Uint32(data[6:headerSize])
	if size > MaxPayload || int(size) != len(data)-headerSize {
		return nil, fmt.Errorf("%w: payload length %d, have %d", ErrBadFrame, size, len(data)-headerSize)
	}
	payload := bytes.NewReader(data[headerSize:])

	switch frameKind(data[5]) {
	case kindEmpty:
		return nil, ErrNoRecord
	case kindRecord:
		var rec Record
		if err := gob.NewDecoder(payload).Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		return []*Record{&rec}, nil
	case kindRecords:
		var recs []*Record
		if err := gob.NewDecoder(payload).Decode(&recs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		return recs, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrBadFrame, data[5])
	}
}

// ReadFrame reads r until EOF and decodes the frame.
func ReadFrame(r io.Reader) ([]*Record, error) {
	data, err := io.ReadAll(io.LimitReader(r, headerSize+MaxPayload+1))
	if err != nil && len(data) == 0 {
		return nil, fmt.Errorf("replay: cannot read response: %w", err)
	}
	recs, decErr := DecodeFrame(data)
	if decErr != nil && err != nil && errors.Is(decErr, ErrBadFrame) {
		// A read error cut the frame short.
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return recs, decErr
}
