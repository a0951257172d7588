// Package bridge speaks the browser native-messaging protocol over
// stdin/stdout: each message is a 4-byte little-endian length prefix
// followed by a JSON body.
package bridge

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize caps message bodies in both directions. Browsers reject
// host-to-browser messages above 1 MiB, and the cap also prevents memory
// exhaustion from a corrupt length prefix.
const MaxFrameSize = 1 << 20

// ReadFrame reads one length-prefixed message body.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds %d byte limit", size, MaxFrameSize)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("short frame body: %w", err)
	}
	return body, nil
}

// WriteFrame writes one length-prefixed message body.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds %d byte limit", len(body), MaxFrameSize)
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
