// Package serialization reads and writes .spinn checkpoint files.
//
// A .spinn file is a flat state dictionary: every tensor is a named
// float64 vector. Layout:
//
//	"SPNN" magic (4 bytes)
//	format version (uint32, little-endian)
//	header size (uint64, little-endian)
//	header JSON
//	data section (little-endian float64 payload, offsets per header)
//
// The header carries the SHA-256 checksum of the data section, so
// corruption is detected before any value is interpreted.
package serialization

import (
	"errors"
	"time"
)

// Format constants.
const (
	MagicBytes    = "SPNN"
	FormatVersion = 1
	DTypeFloat64  = "float64"

	// MaxHeaderSize bounds the JSON header so a corrupted size field
	// cannot drive an allocation.
	MaxHeaderSize = 16 << 20
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("serialization: invalid magic bytes")
	ErrUnsupportedVersion = errors.New("serialization: unsupported format version")
	ErrHeaderTooLarge     = errors.New("serialization: header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("serialization: checksum mismatch, file may be corrupted")
	ErrOutOfBounds        = errors.New("serialization: tensor extends beyond data section")
	ErrUnsupportedDType   = errors.New("serialization: unsupported dtype")
)

// Header is the JSON header of a .spinn file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
	Checksum      string            `json:"checksum"` // hex SHA-256 of the data section
}

// TensorMeta describes one named vector in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of data section
	Size   int64  `json:"size"`   // bytes
}
