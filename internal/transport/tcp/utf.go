package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"
)

// MaxFrame is the largest payload a uint16 length prefix can describe.
const MaxFrame = 0xffff

var (
	ErrFrameTooLarge = errors.New("tcp: frame exceeds 65535 bytes")
	ErrBadEncoding   = errors.New("tcp: malformed modified UTF-8")
)

// WriteUTF writes s as a length-prefixed modified UTF-8 frame (the encoding of
// java.io.DataOutput.writeUTF).
func WriteUTF(w io.Writer, s string) error {
	body := encodeModifiedUTF8(s)
	if len(body) > MaxFrame {
		return ErrFrameTooLarge
	}
	frame := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(frame, uint16(len(body)))
	copy(frame[2:], body)
	_, err := w.Write(frame)
	return err
}

// ReadUTF reads one frame written by WriteUTF.
func ReadUTF(r io.Reader) (string, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", err
	}
	body := make([]byte, binary.BigEndian.Uint16(hdr[:]))
	if _, err := io.ReadFull(r, body); err != nil {
		return "", err
	}
	return decodeModifiedUTF8(body)
}

func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	put := func(c uint16) {
		switch {
		case c != 0 && c < 0x80:
			out = append(out, byte(c))
		case c < 0x800:
			out = append(out, 0xc0|byte(c>>6), 0x80|byte(c&0x3f))
		default:
			out = append(out, 0xe0|byte(c>>12), 0x80|byte((c>>6)&0x3f), 0x80|byte(c&0x3f))
		}
	}
	for _, r := range s {
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			put(uint16(hi))
			put(uint16(lo))
			continue
		}
		put(uint16(r))
	}
	return out
}

func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xe0 == 0xc0:
			if i+1 >= len(b) || b[i+1]&0xc0 != 0x80 {
				return "", fmt.Errorf("%w at byte %d", ErrBadEncoding, i)
			}
			units = append(units, uint16(c&0x1f)<<6|uint16(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0:
			if i+2 >= len(b) || b[i+1]&0xc0 != 0x80 || b[i+2]&0xc0 != 0x80 {
				return "", fmt.Errorf("%w at byte %d", ErrBadEncoding, i)
			}
			units = append(units, uint16(c&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			return "", fmt.Errorf("%w at byte %d", ErrBadEncoding, i)
		}
	}
	return string(utf16.Decode(units)), nil
}
