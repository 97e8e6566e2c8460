package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

// Format is the export file type.
type Format int

const (
	FormatImage Format = iota
	FormatPDF
)

func (f Format) String() string {
	if f == FormatPDF {
		return "pdf"
	}
	return "image"
}

// ParseFormat is case-insensitive; an empty string selects FormatImage.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "image", "jpeg", "jpg":
		return FormatImage, nil
	case "pdf":
		return FormatPDF, nil
	}
	return FormatImage, fmt.Errorf("unknown export format %q", s)
}

// MIME types of the produced artifacts.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPDF  = "application/pdf"
)

// Quality limits, in percent.
const (
	MinQuality     = 10
	MaxQuality     = 100
	DefaultQuality = 80
)

var ErrQuality = errors.New("export: quality outside 10..100")

// Options select the export geometry and encoding.
type Options struct {
	Format      Format
	PageSize    PageSize
	Orientation Orientation
	Quality     int // 0 means DefaultQuality
}

// DefaultOptions mirrors the export stage's initial settings.
func DefaultOptions() Options {
	return Options{Format: FormatImage, PageSize: A4, Orientation: Portrait, Quality: DefaultQuality}
}

func (o Options) quality() (int, error) {
	if o.Quality == 0 {
		return DefaultQuality, nil
	}
	if o.Quality < MinQuality || o.Quality > MaxQuality {
		return 0, fmt.Errorf("%w: %d", ErrQuality, o.Quality)
	}
	return o.Quality, nil
}

// Artifact is a named, typed file ready for a share sink.
type Artifact struct {
	Name     string
	MIMEType string
	Data     []byte
}

// FileName builds "<name>.<ext>", falling back to "document".
func FileName(name, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "document"
	}
	return name + "." + ext
}

// Encode produces the artifact for one page. FormatImage re-encodes the page
// raster as JPEG; FormatPDF fits it onto a page first. Quality only affects
// the encoding.
func Encode(name string, img image.Image, opts Options) (Artifact, error) {
	q, err := opts.quality()
	if err != nil {
		return Artifact{}, err
	}
	switch opts.Format {
	case FormatPDF:
		page, _ := Fit(img, opts.PageSize, opts.Orientation)
		data, err := EncodePDF(page, opts.PageSize, opts.Orientation, q)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Name: FileName(name, "pdf"), MIMEType: MIMEPDF, Data: data}, nil
	default:
		data, err := raster.EncodeJPEG(img, q)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Name: FileName(name, "jpg"), MIMEType: MIMEJPEG, Data: data}, nil
	}
}

// EncodePDF writes a one-page PDF of the given paper size with page drawn
// full-bleed as a JPEG image.
func EncodePDF(page image.Image, size PageSize, o Orientation, quality int) ([]byte, error) {
	jpg, err := raster.EncodeJPEG(page, quality)
	if err != nil {
		return nil, err
	}

	form := size.String()
	if o == Landscape {
		form += "L"
	}
	imp, err := api.Import(fmt.Sprintf("f:%s, pos:full", form), types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("pdf import settings: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(jpg)}, imp, conf); err != nil {
		return nil, fmt.Errorf("failed to build pdf page: %w", err)
	}
	return buf.Bytes(), nil
}
