package serialization

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, state map[string][]float64, metadata map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.spinn")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteStateDict(state, "FieldNetwork", metadata))
	require.NoError(t, w.Close())
	return path
}

func TestRoundTrip(t *testing.T) {
	state := map[string][]float64{
		"centers.free.x": {0.1, 0.2, 0.3},
		"readout.weight": {-1.5, 0, 2.25, 1e-300},
		"empty":          {},
	}
	path := writeFile(t, state, map[string]string{"kernel": "gaussian"})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	h := r.Header()
	assert.Equal(t, FormatVersion, h.FormatVersion)
	assert.Equal(t, "FieldNetwork", h.ModelType)
	assert.Equal(t, "gaussian", h.Metadata["kernel"])
	assert.False(t, h.CreatedAt.IsZero())

	got, err := r.ReadStateDict()
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestDeterministicLayout(t *testing.T) {
	state := map[string][]float64{
		"b": {2},
		"a": {1},
		"c": {3},
	}
	path := writeFile(t, state, nil)

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	// Tensors are laid out in sorted name order with contiguous offsets.
	tensors := r.Header().Tensors
	require.Len(t, tensors, 3)
	assert.Equal(t, "a", tensors[0].Name)
	assert.Equal(t, "b", tensors[1].Name)
	assert.Equal(t, "c", tensors[2].Name)
	assert.Equal(t, int64(0), tensors[0].Offset)
	assert.Equal(t, int64(8), tensors[1].Offset)
	assert.Equal(t, int64(16), tensors[2].Offset)
}

func TestCorruptedPayload(t *testing.T) {
	path := writeFile(t, map[string][]float64{"w": {1, 2, 3}}, nil)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = NewReader(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestInvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.spinn")
	require.NoError(t, os.WriteFile(path, []byte("NOPE then some trailing bytes"), 0o644))

	_, err := NewReader(path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestUnsupportedVersion(t *testing.T) {
	path := writeFile(t, map[string][]float64{"w": {1}}, nil)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(raw[len(MagicBytes):], 99)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = NewReader(path)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestHeaderSizeBound(t *testing.T) {
	path := writeFile(t, map[string][]float64{"w": {1}}, nil)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint64(raw[len(MagicBytes)+4:], MaxHeaderSize+1)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = NewReader(path)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestTruncatedFile(t *testing.T) {
	path := writeFile(t, map[string][]float64{"w": {1, 2}}, nil)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-4], 0o644))

	_, err = NewReader(path)
	assert.Error(t, err)
}

func TestWriterClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.spinn")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "double close is safe")

	err = w.WriteStateDict(map[string][]float64{"w": {1}}, "FieldNetwork", nil)
	assert.Error(t, err)
}
