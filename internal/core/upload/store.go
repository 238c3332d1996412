package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register webp for DecodeConfig
)

var (
	ErrTooLarge    = errors.New("file too large")
	ErrType        = errors.New("file type not allowed")
	ErrCorrupt     = errors.New("file is not a valid image")
	ErrOutsideRoot = errors.New("path outside upload root")
)

var (
	ImageTypes = []string{"image/jpeg", "image/png", "image/webp"}
	LogoTypes  = []string{"image/jpeg", "image/png", "image/webp", "image/svg+xml"}
)

// MaxDimension bounds the longest side of stored jpeg and png images.
const MaxDimension = 2560

// Raster uploads above these bounds are refused before any pixel is decoded.
const (
	MaxPixels = 40_000_000
	MaxSide   = 16384
)

// Store keeps uploaded files under Root and addresses them by public URLs
// beginning with Prefix.
type Store struct {
	Root   string
	Prefix string
}

func New(root, prefix string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Store{Root: abs, Prefix: "/" + strings.Trim(prefix, "/")}, nil
}

type SaveOpts struct {
	Dir      string // relative to Root, e.g. listings/<id>
	Name     string // client file name, sanitized
	MaxBytes int64
	Allowed  []string
}

// Save sniffs r, checks it against the allowlist and writes it under Dir.
// It returns the public URL of the stored file.
func (s *Store) Save(r io.Reader, o SaveOpts) (string, error) {
	buf, err := io.ReadAll(io.LimitReader(r, o.MaxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(buf)) > o.MaxBytes {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(buf)
	if !mimetype.EqualsAny(mt.String(), o.Allowed...) {
		return "", fmt.Errorf("%w: %s", ErrType, mt.String())
	}
	if !mt.Is("image/svg+xml") {
		if buf, err = fitRaster(buf, mt.String()); err != nil {
			return "", err
		}
	}

	dir, err := s.resolve(o.Dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := ulid.Make().String() + "-" + sanitize(o.Name, mt.Extension())
	if err := os.WriteFile(filepath.Join(dir, name), buf, 0o644); err != nil {
		return "", err
	}
	return path.Join(s.Prefix, filepath.ToSlash(o.Dir), name), nil
}

// Remove deletes the file behind a public URL. Missing files are ignored.
func (s *Store) Remove(publicURL string) error {
	rel := strings.TrimPrefix(publicURL, s.Prefix+"/")
	if rel == publicURL {
		return ErrOutsideRoot
	}
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) resolve(rel string) (string, error) {
	p := filepath.Join(s.Root, filepath.FromSlash(rel))
	r, err := filepath.Rel(s.Root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return p, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitize(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if len(base) > 60 {
		base = base[:60]
	}
	if base == "" {
		base = "file"
	}
	return strings.ToLower(base) + ext
}

// fitRaster validates the image header and downsizes jpeg and png images
// whose longest side exceeds MaxDimension.
func fitRaster(buf []byte, mime string) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, ErrCorrupt
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrCorrupt
	}
	if cfg.Width > MaxSide || cfg.Height > MaxSide || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}
	if (cfg.Width <= MaxDimension && cfg.Height <= MaxDimension) || mime == "image/webp" {
		return buf, nil
	}
	src, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, ErrCorrupt
	}
	w, h := cfg.Width, cfg.Height
	if w >= h {
		h = h * MaxDimension / w
		w = MaxDimension
	} else {
		w = w * MaxDimension / h
		h = MaxDimension
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if mime == "image/png" {
		err = png.Encode(&out, dst)
	} else {
		err = jpeg.Encode(&out, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
