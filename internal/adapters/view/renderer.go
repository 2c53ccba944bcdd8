package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"poolside/internal/domain/timetable"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages rendered inside the layout.
const (
	PageIndex     = "index.html"
	PageBookings  = "bookings.html"
	PageTimetable = "timetable.html"
)

// Fragments rendered on their own.
const (
	FragmentOverlay      = "overlay"
	FragmentNotification = "notification"
	FragmentBookingTable = "booking_table"
)

// PageData is what every template receives.
type PageData struct {
	Title         string
	CSRFField     template.HTML // the front's own form token field
	UpstreamToken string        // csrfmiddlewaretoken for booking server forms
	State         State
	Activities    []timetable.Activity
}

// mdRenderer escapes raw HTML in descriptions (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Markdown converts an activity description to HTML.
func Markdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// Renderer executes the embedded templates. Templates are parsed once.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout, shared fragments and every page.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{"markdown": Markdown}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageIndex, PageBookings, PageTimetable} {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/fragments.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = tpl
	}
	return r, nil
}

// Page renders a full page.
func (r *Renderer) Page(w io.Writer, page string, data PageData) error {
	tpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tpl.Execute(w, data)
}

// Fragment renders one shared fragment. The notification fragment takes the
// State; the others take PageData.
func (r *Renderer) Fragment(w io.Writer, name string, data any) error {
	return r.pages[PageIndex].ExecuteTemplate(w, name, data)
}

// FragmentString is Fragment into a string.
func (r *Renderer) FragmentString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Fragment(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Static returns the embedded stylesheet and script.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
