package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDocumentName is used when a capture does not supply a name.
const DefaultDocumentName = "New Document"

// Document is one scanned document. It is stored in Firestore with its page
// rasters kept out of line (see gcp.DocumentStore), and handed from stage to
// stage by value.
type Document struct {
	ID        string    `firestore:"id" json:"id"`
	Name      string    `firestore:"name" json:"name"`
	Pages     []Page    `firestore:"pages" json:"pages"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`

	// SourceHash is the SHA-256 of the uploaded file for documents created
	// by bulk ingest. It is used to skip duplicate uploads.
	SourceHash string `firestore:"sourceHash,omitempty" json:"sourceHash,omitempty"`
}

// Page holds the rasters and text attached to one page of a document.
// OriginalImageData is the baseline every edit is derived from; it only
// changes when a crop is committed.
type Page struct {
	ID                string       `firestore:"id" json:"id"`
	OriginalImageData []byte       `firestore:"-" json:"originalImageData,omitempty"`
	ImageData         []byte       `firestore:"-" json:"imageData,omitempty"`
	Annotations       []Annotation `firestore:"annotations" json:"annotations"`
	OCRText           string       `firestore:"ocrText" json:"ocrText"`
	Notes             string       `firestore:"notes" json:"notes"`

	// Object names of the rasters in the image bucket. Filled by the store.
	OriginalImageObject string `firestore:"originalImageObject,omitempty" json:"-"`
	ImageObject         string `firestore:"imageObject,omitempty" json:"-"`
}

// Annotation is reserved. Strokes are flattened into ImageData on save.
type Annotation struct {
	Kind string `firestore:"kind" json:"kind"`
}

// NewDocumentID is the creation time in Unix milliseconds plus a random
// suffix, so captures in the same millisecond get distinct ids.
func NewDocumentID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}

// NewDocument builds a single-page document around a freshly captured raster.
func NewDocument(raster []byte, name string, now time.Time) Document {
	if name == "" {
		name = DefaultDocumentName
	}
	return Document{
		ID:   NewDocumentID(now),
		Name: name,
		Pages: []Page{{
			ID:                "1",
			OriginalImageData: raster,
			ImageData:         raster,
			Annotations:       []Annotation{},
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy, so the receiver and the copy share no slices.
func (d Document) Clone() Document {
	out := d
	out.Pages = make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		p.OriginalImageData = cloneBytes(p.OriginalImageData)
		p.ImageData = cloneBytes(p.ImageData)
		p.Annotations = append([]Annotation(nil), p.Annotations...)
		out.Pages[i] = p
	}
	return out
}

// FirstPage returns a pointer to the first page, or nil for an empty document.
func (d *Document) FirstPage() *Page {
	if len(d.Pages) == 0 {
		return nil
	}
	return &d.Pages[0]
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
