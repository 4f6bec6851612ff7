package scanner

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanOnceReturnsFirstValidPayload(t *testing.T) {
	t.Parallel()

	d := &LineDevice{Stdin: strings.NewReader("\nnot-a-code\n5000112548167\n12345678\n")}
	code, err := ScanOnce(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "5000112548167", code)
	assert.False(t, d.open, "device should be released after decode")
}

func TestScanOnceEndOfInputReleasesDevice(t *testing.T) {
	t.Parallel()

	d := &LineDevice{Stdin: strings.NewReader("abc\n")}
	_, err := ScanOnce(context.Background(), d)
	assert.ErrorIs(t, err, ErrNoPayload)
	assert.False(t, d.open)
}

func TestScanOnceCancelReleasesDevice(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()
	d := &LineDevice{Stdin: pr}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := ScanOnce(ctx, d)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, d.open)
}

func TestScanOnceReadsDeviceFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scanner")
	require.NoError(t, os.WriteFile(path, []byte("87654321\n"), 0o600))
	code, err := ScanOnce(context.Background(), &LineDevice{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "87654321", code)
}

func TestLineDeviceIsExclusive(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()
	d := &LineDevice{Stdin: pr}
	s, err := d.Open(context.Background())
	require.NoError(t, err)

	_, err = d.Open(context.Background())
	assert.True(t, errors.Is(err, ErrDeviceInUse))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	s2, err := d.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestOpenMissingDeviceFails(t *testing.T) {
	t.Parallel()

	_, err := ScanOnce(context.Background(), &LineDevice{Path: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open capture device")
}

func TestValidBarcode(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidBarcode("12345678"))
	assert.True(t, ValidBarcode(" 5000112548167 "))
	assert.False(t, ValidBarcode("1234567"))
	assert.False(t, ValidBarcode("123456789012345"))
	assert.False(t, ValidBarcode("12345abc"))
}

func TestLineDeviceReopenKeepsUnreadInput(t *testing.T) {
	t.Parallel()

	d := &LineDevice{Stdin: strings.NewReader("12345678\nnoise\n87654321\n")}
	first, err := ScanOnce(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "12345678", first)

	second, err := ScanOnce(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "87654321", second)

	_, err = ScanOnce(context.Background(), d)
	assert.ErrorIs(t, err, ErrNoPayload)
	assert.False(t, d.open)
}
