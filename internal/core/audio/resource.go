package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrEmptyResource = errors.New("audio resource has no frames")

// Resource is a decoded clip: Opus frames ready to be sent to a voice connection.
// It is shared read-only between players.
type Resource struct {
	Title  string
	Frames [][]byte
}

// LoadResource reads a DCA file: each frame is an int16 little-endian length
// followed by that many bytes of Opus data.
func LoadResource(path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	frames, err := DecodeFrames(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &Resource{Title: resourceTitle(path), Frames: frames}, nil
}

func DecodeFrames(r io.Reader) ([][]byte, error) {
	var frames [][]byte

	for {
		var size int16
		err := binary.Read(r, binary.LittleEndian, &size)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read frame length: %w", err)
		}
		if size <= 0 {
			return nil, fmt.Errorf("invalid frame length %d at frame %d", size, len(frames))
		}

		frame := make([]byte, size)
		if _, err := io.ReadFull(r, frame); err != nil {
			return nil, fmt.Errorf("read frame %d: %w", len(frames), err)
		}
		frames = append(frames, frame)
	}

	if len(frames) == 0 {
		return nil, ErrEmptyResource
	}
	return frames, nil
}

func resourceTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
