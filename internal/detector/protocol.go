package detector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// maxMessageSize bounds a single worker message.
const maxMessageSize = 16 << 20

// ErrMessageTooLarge is returned when a worker message exceeds maxMessageSize.
var ErrMessageTooLarge = errors.New("worker message too large")

// poseRequest is sent to the pose worker for every image.
type poseRequest struct {
	Image  []byte `msgpack:"image"`
	Width  int    `msgpack:"width"`
	Height int    `msgpack:"height"`
}

// poseResponse is the worker's answer. Coordinates are normalized to [0,1].
type poseResponse struct {
	Landmarks []workerLandmark `msgpack:"landmarks"`
	Error     string           `msgpack:"error,omitempty"`
}

type workerLandmark struct {
	ID         int     `msgpack:"id"`
	X          float64 `msgpack:"x"`
	Y          float64 `msgpack:"y"`
	Z          float64 `msgpack:"z"`
	Visibility float64 `msgpack:"visibility"`
}

// writeMessage writes v as a 4-byte big-endian length followed by its
// msgpack encoding.
func writeMessage(w io.Writer, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(data) > maxMessageSize {
		return ErrMessageTooLarge
	}

	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// readMessage reads one length-prefixed msgpack message into v.
func readMessage(r io.Reader, v any) error {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return fmt.Errorf("read length: %w", err)
	}

	n := binary.BigEndian.Uint32(lengthBuf[:])
	if n > maxMessageSize {
		return ErrMessageTooLarge
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}
