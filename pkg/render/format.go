package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plastic-phy/plastic/pkg/cache"
	"github.com/plastic-phy/plastic/pkg/errors"
)

// Format is an output file format.
type Format string

// Supported output formats.
const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

var extFormats = map[string]Format{
	".dot": FormatDOT,
	".gv":  FormatDOT,
	".svg": FormatSVG,
	".png": FormatPNG,
	".pdf": FormatPDF,
}

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatSVG, FormatPNG, FormatPDF, FormatDOT}
}

// ParseFormat parses a format name such as "svg" or "PDF".
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(name, "."))); f {
	case FormatDOT, FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	case "gv":
		return FormatDOT, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q", name)
}

// FormatFromPath returns the format implied by the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "output path %q has no extension", path)
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported output extension %q", ext)
}

// Render converts DOT text to the given format. It returns ctx.Err() if
// ctx is already done.
func Render(ctx context.Context, dot []byte, f Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch f {
	case FormatDOT:
		return dot, nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	case FormatPDF:
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return ToPDF(ctx, svg)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q", f)
}

// WriteFile renders DOT text according to the extension of path and writes
// the result, replacing any existing file. The parent directory must exist.
func WriteFile(ctx context.Context, path string, dot []byte) error {
	return Renderer{}.WriteFile(ctx, path, dot)
}

// Renderer renders DOT text, reusing earlier results from Cache when one is
// set. DOT output is passed through and never cached.
type Renderer struct {
	Cache cache.Cache
	TTL   time.Duration
}

// Render is the cached form of the package-level [Render]. Cache failures
// are ignored; the drawing is rendered again instead.
func (r Renderer) Render(ctx context.Context, dot []byte, f Format) ([]byte, error) {
	if r.Cache == nil || f == FormatDOT {
		return Render(ctx, dot, f)
	}

	key := cache.ArtifactKey(dot, string(f))
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}
	out, err := Render(ctx, dot, f)
	if err != nil {
		return nil, err
	}
	_ = r.Cache.Set(ctx, key, out, r.TTL)
	return out, nil
}

// WriteFile is the cached form of the package-level [WriteFile].
func (r Renderer) WriteFile(ctx context.Context, path string, dot []byte) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	out, err := r.Render(ctx, dot, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
