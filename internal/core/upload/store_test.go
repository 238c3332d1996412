package upload

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const svgDoc = `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"><rect width="4" height="4"/></svg>`

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "/uploads")
	require.NoError(t, err)
	return s
}

func TestSave_StoresPNG(t *testing.T) {
	s := newStore(t)
	url, err := s.Save(bytes.NewReader(pngBytes(t, 4, 4)), SaveOpts{
		Dir: "listings/abc", Name: "My Car (1).PNG", MaxBytes: 1 << 20, Allowed: ImageTypes,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/listings/abc/"), url)
	assert.True(t, strings.HasSuffix(url, "-my_car_1.png"), url)

	_, err = os.Stat(filepath.Join(s.Root, "listings", "abc", filepath.Base(url)))
	assert.NoError(t, err)
}

func TestSave_RejectsTextFile(t *testing.T) {
	s := newStore(t)
	_, err := s.Save(strings.NewReader("hello, not an image"), SaveOpts{
		Dir: "listings/abc", Name: "x.png", MaxBytes: 1 << 20, Allowed: ImageTypes,
	})
	assert.ErrorIs(t, err, ErrType)
}

func TestSave_RejectsOversize(t *testing.T) {
	s := newStore(t)
	data := pngBytes(t, 4, 4)
	_, err := s.Save(bytes.NewReader(data), SaveOpts{
		Dir: "listings/abc", Name: "x.png", MaxBytes: int64(len(data) - 1), Allowed: ImageTypes,
	})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSave_SVGOnlyForLogo(t *testing.T) {
	s := newStore(t)
	_, err := s.Save(strings.NewReader(svgDoc), SaveOpts{
		Dir: "listings/abc", Name: "logo.svg", MaxBytes: 1 << 20, Allowed: ImageTypes,
	})
	assert.ErrorIs(t, err, ErrType)

	url, err := s.Save(strings.NewReader(svgDoc), SaveOpts{
		Dir: "branding", Name: "logo.svg", MaxBytes: 1 << 20, Allowed: LogoTypes,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "-logo.svg"), url)
}

func TestSave_DownscalesLargePNG(t *testing.T) {
	s := newStore(t)
	url, err := s.Save(bytes.NewReader(pngBytes(t, MaxDimension*2, 8)), SaveOpts{
		Dir: "listings/big", Name: "wide.png", MaxBytes: 10 << 20, Allowed: ImageTypes,
	})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(s.Root, "listings", "big", filepath.Base(url)))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, cfg.Width)
	assert.Equal(t, 4, cfg.Height)
}

// pngHeader returns a png signature and IHDR chunk claiming w x h gray
// pixels, with no image data behind it.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 0, 0, 0, 0) // 8-bit gray, no interlace
	_ = binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestSave_RefusesHugeDimensions(t *testing.T) {
	s := newStore(t)
	cases := []struct {
		name string
		w, h uint32
	}{
		{"pixel budget", 20000, 20000},
		{"long side", MaxSide + 1, 1},
		{"tall", 8, 40000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := pngHeader(tc.w, tc.h)
			_, err := s.Save(bytes.NewReader(data), SaveOpts{
				Dir: "listings/bomb", Name: "x.png", MaxBytes: 5 << 20, Allowed: ImageTypes,
			})
			assert.ErrorIs(t, err, ErrTooLarge)
		})
	}

	entries, err := os.ReadDir(s.Root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	url, err := s.Save(bytes.NewReader(pngBytes(t, 2, 2)), SaveOpts{
		Dir: "branding", Name: "a.png", MaxBytes: 1 << 20, Allowed: LogoTypes,
	})
	require.NoError(t, err)

	require.NoError(t, s.Remove(url))
	require.NoError(t, s.Remove(url), "missing file is ignored")

	assert.ErrorIs(t, s.Remove("/uploads/../../etc/passwd"), ErrOutsideRoot)
	assert.ErrorIs(t, s.Remove("/elsewhere/a.png"), ErrOutsideRoot)
}
