package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"
)

// Writer writes state dictionaries in .spinn format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a .spinn file writer at path, truncating any existing
// file.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("serialization: create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteStateDict writes a complete state dictionary and metadata.
//
// Tensors are laid out in sorted name order so identical state produces
// byte-identical files.
func (w *Writer) WriteStateDict(stateDict map[string][]float64, modelType string, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("serialization: writer is closed")
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}

	var offset int64
	payload := make([]byte, 0)
	for _, name := range names {
		vec := stateDict[name]
		size := int64(len(vec) * 8)
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  DTypeFloat64,
			Shape:  []int{len(vec)},
			Offset: offset,
			Size:   size,
		})
		for _, x := range vec {
			payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(x))
		}
		offset += size
	}

	sum := sha256.Sum256(payload)
	header.Checksum = hex.EncodeToString(sum[:])

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("serialization: marshal header: %w", err)
	}

	if _, err := w.file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("serialization: write magic bytes: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("serialization: write version: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("serialization: write header size: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("serialization: write header: %w", err)
	}
	if _, err := w.file.Write(payload); err != nil {
		return fmt.Errorf("serialization: write data section: %w", err)
	}
	return nil
}

// Close closes the underlying file. Safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
