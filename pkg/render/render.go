package render

import (
	"fmt"
	"maps"
	"slices"

	"github.com/arbormap/arbor/pkg/tree"
)

// Output formats.
const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatJPG   = "jpg"
	FormatPDF   = "pdf"
	FormatDOT   = "dot"
	FormatGraph = "graph"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:   true,
	FormatPNG:   true,
	FormatJPG:   true,
	FormatPDF:   true,
	FormatDOT:   true,
	FormatGraph: true,
}

// Default frame dimensions and JPEG quality.
const (
	DefaultWidth   = 1920
	DefaultHeight  = 1080
	DefaultQuality = 90
)

// Options configures an export.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Format selects the output: svg (default), png, jpg, pdf, dot, or
	// graph (a Graphviz-laid-out relationship view).
	Format string `json:"format,omitempty"`

	// Width and Height are the frame dimensions in pixels.
	// Defaults to 1920×1080.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Quality is the JPEG quality (1-100, default 90). Ignored for other
	// formats.
	Quality int `json:"quality,omitempty"`
}

// SetDefaults fills in zero-valued fields with defaults.
func (o *Options) SetDefaults() {
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
}

// ValidateFormat checks that a format string is supported.
func ValidateFormat(format string) error {
	if format != "" && !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, jpg, pdf, dot, graph)", format)
	}
	return nil
}

// Export renders the tree in the requested format.
//
// SVG and DOT are produced natively; PNG and JPEG are rasterized with a
// local drawing context; PDF is converted from the SVG output and
// requires librsvg on the host; graph runs the DOT view through Graphviz
// and returns its SVG.
func Export(t *tree.Tree, opts Options) ([]byte, error) {
	opts.SetDefaults()
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, err
	}

	switch opts.Format {
	case FormatSVG:
		return RenderSVG(t, opts.Width, opts.Height), nil
	case FormatPNG:
		return RenderPNG(t, opts.Width, opts.Height)
	case FormatJPG:
		return RenderJPEG(t, opts.Width, opts.Height, opts.Quality)
	case FormatPDF:
		return ToPDF(RenderSVG(t, opts.Width, opts.Height))
	case FormatDOT:
		return []byte(ToDOT(t)), nil
	case FormatGraph:
		return RenderDOTSVG(ToDOT(t))
	default:
		return nil, fmt.Errorf("invalid format: %q", opts.Format)
	}
}

// sortedPersons returns the tree's persons ordered by ID so repeated
// renders produce byte-identical output.
func sortedPersons(t *tree.Tree) []*tree.Person {
	out := make([]*tree.Person, 0, len(t.Persons))
	for _, id := range slices.Sorted(maps.Keys(t.Persons)) {
		out = append(out, t.Persons[id])
	}
	return out
}

// sortedMarriages returns the tree's marriages ordered by ID.
func sortedMarriages(t *tree.Tree) []*tree.Marriage {
	out := make([]*tree.Marriage, 0, len(t.Marriages))
	for _, id := range slices.Sorted(maps.Keys(t.Marriages)) {
		out = append(out, t.Marriages[id])
	}
	return out
}

// Extension returns the file extension for a format. The graph format
// produces SVG output; its extension keeps the format name so a combined
// export alongside svg does not collide.
func Extension(format string) string {
	if format == FormatGraph {
		return "graph.svg"
	}
	return format
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJPG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatGraph:
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
