package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Reader reads state dictionaries from .spinn files.
type Reader struct {
	file   *os.File
	header Header
	data   []byte
}

// NewReader opens a .spinn file, parses and validates its header, and
// verifies the data-section checksum.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("serialization: open file: %w", err)
	}
	r := &Reader{file: file}
	if err := r.readAll(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readAll() error {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r.file, magic); err != nil {
		return fmt.Errorf("serialization: read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return ErrInvalidMagic
	}

	var version uint32
	if err := binary.Read(r.file, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("serialization: read version: %w", err)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var headerSize uint64
	if err := binary.Read(r.file, binary.LittleEndian, &headerSize); err != nil {
		return fmt.Errorf("serialization: read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerJSON); err != nil {
		return fmt.Errorf("serialization: read header: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return fmt.Errorf("serialization: parse header: %w", err)
	}

	data, err := io.ReadAll(r.file)
	if err != nil {
		return fmt.Errorf("serialization: read data section: %w", err)
	}
	r.data = data

	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != r.header.Checksum {
		return ErrChecksumMismatch
	}

	for _, meta := range r.header.Tensors {
		if meta.DType != DTypeFloat64 {
			return fmt.Errorf("%w: tensor %q has dtype %q", ErrUnsupportedDType, meta.Name, meta.DType)
		}
		if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > int64(len(data)) {
			return fmt.Errorf("%w: tensor %q", ErrOutOfBounds, meta.Name)
		}
	}
	return nil
}

// Header returns the parsed file header.
func (r *Reader) Header() Header { return r.header }

// ReadStateDict decodes every tensor into a flat name → vector mapping.
func (r *Reader) ReadStateDict() (map[string][]float64, error) {
	out := make(map[string][]float64, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw := r.data[meta.Offset : meta.Offset+meta.Size]
		vec := make([]float64, len(raw)/8)
		for i := range vec {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			vec[i] = math.Float64frombits(bits)
		}
		out[meta.Name] = vec
	}
	return out, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
