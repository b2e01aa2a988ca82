// Package imaging transcodes raster images between the formats the suite
// hands to game engines.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"modsuite/internal/fileutil"
	"modsuite/internal/services"
)

// Format is an upper-case image format name.
type Format string

const (
	PNG  Format = "PNG"
	JPEG Format = "JPEG"
	GIF  Format = "GIF"
	BMP  Format = "BMP"
	TIFF Format = "TIFF"
	WEBP Format = "WEBP"
)

// JPEGQuality is used for every JPEG encode.
const JPEGQuality = 90

var aliases = map[string]Format{
	"JPG": JPEG,
	"TIF": TIFF,
}

// ParseFormat normalizes a format name. JPG and TIF are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	upper := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), ".")))
	if f, ok := aliases[upper]; ok {
		return f, nil
	}
	switch f := Format(upper); f {
	case PNG, JPEG, GIF, BMP, TIFF, WEBP:
		return f, nil
	}
	return "", services.Wrap(services.ErrValidation, "imaging", "format",
		fmt.Sprintf("unsupported image format %q", name), nil)
}

// Encodable reports whether Convert can write f. WebP is read-only.
func (f Format) Encodable() bool {
	switch f {
	case PNG, JPEG, GIF, BMP, TIFF:
		return true
	}
	return false
}

// FormatForPath infers the format from the extension of path.
func FormatForPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", services.Wrap(services.ErrValidation, "imaging", "format",
			fmt.Sprintf("cannot infer image format from %q", path), nil)
	}
	return ParseFormat(ext)
}

// Supported reports whether path has a decodable image extension.
func Supported(path string) bool {
	_, err := FormatForPath(path)
	return err == nil
}

// Info describes a decoded image header.
type Info struct {
	Format Format
	Width  int
	Height int
}

// Describe reads only the image header at path.
func Describe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrIOFailure, "imaging", "open", path, err)
	}
	defer f.Close()
	cfg, name, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, services.Wrap(services.ErrValidation, "imaging", "decode", path, err)
	}
	format, _ := ParseFormat(name)
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Convert decodes in and writes it to out in the requested format. An empty
// format is inferred from the extension of out.
func Convert(in, out, format string) (Info, error) {
	var target Format
	var err error
	if strings.TrimSpace(format) == "" {
		target, err = FormatForPath(out)
	} else {
		target, err = ParseFormat(format)
	}
	if err != nil {
		return Info{}, err
	}
	if !target.Encodable() {
		return Info{}, services.Wrap(services.ErrValidation, "imaging", "encode",
			fmt.Sprintf("writing %s is not supported", target), nil)
	}

	src, err := os.Open(in)
	if err != nil {
		return Info{}, services.Wrap(services.ErrIOFailure, "imaging", "open", in, err)
	}
	img, _, err := image.Decode(src)
	_ = src.Close()
	if err != nil {
		return Info{}, services.Wrap(services.ErrValidation, "imaging", "decode", in, err)
	}

	var buf bytes.Buffer
	if err := encode(&buf, img, target); err != nil {
		return Info{}, err
	}
	if err := fileutil.EnsureParentDir(out); err != nil {
		return Info{}, services.Wrap(services.ErrIOFailure, "imaging", "write", out, err)
	}
	if err := fileutil.WriteFileAtomic(out, buf.Bytes()); err != nil {
		return Info{}, services.Wrap(services.ErrIOFailure, "imaging", "write", out, err)
	}
	b := img.Bounds()
	return Info{Format: target, Width: b.Dx(), Height: b.Dy()}, nil
}

func encode(buf *bytes.Buffer, img image.Image, target Format) error {
	var err error
	switch target {
	case PNG:
		err = png.Encode(buf, img)
	case JPEG:
		err = jpeg.Encode(buf, flatten(img), &jpeg.Options{Quality: JPEGQuality})
	case GIF:
		err = gif.Encode(buf, img, nil)
	case BMP:
		err = bmp.Encode(buf, img)
	case TIFF:
		err = tiff.Encode(buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return services.Wrap(services.ErrValidation, "imaging", "encode",
			fmt.Sprintf("writing %s is not supported", target), nil)
	}
	if err != nil {
		return services.Wrap(services.ErrValidation, "imaging", "encode", string(target), err)
	}
	return nil
}

// flatten composites img over white so transparent regions do not turn black
// in formats without alpha.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
