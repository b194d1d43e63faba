package renderer

import (
	"embed"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/avelines/a11yscan/internal/logging"
)

//go:embed fixtures/sample.html fixtures/accessible.html
var fixtureFS embed.FS

// Reserved target tokens that bypass the fetcher and load a local
// fixture instead. They keep the pipeline exercisable with no outbound
// network access.
const (
	TokenTest           = "test"
	TokenTestSample     = "test-sample"
	TokenTestAccessible = "test-accessible"
)

// RenderError is returned when markup cannot be turned into a document.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer builds navigable DOM trees from HTML text. Parsing only:
// embedded scripts are never executed and no subresources are loaded.
type Renderer struct {
	logger logging.Logger
}

// New creates a Renderer.
func New(logger logging.Logger) *Renderer {
	return &Renderer{
		logger: logger.With(logging.Field{Key: "component", Value: "renderer"}),
	}
}

// FixtureFor resolves a raw target to a fixture file name. ok is false
// for anything that is not a reserved token.
func FixtureFor(target string) (name string, ok bool) {
	switch strings.TrimSpace(strings.ToLower(target)) {
	case TokenTest, TokenTestSample:
		return "fixtures/sample.html", true
	case TokenTestAccessible:
		return "fixtures/accessible.html", true
	default:
		return "", false
	}
}

// Render parses htmlText into a document. baseURL is recorded on the
// document URL for node resolution and report labeling.
func (r *Renderer) Render(htmlText, baseURL string) (*goquery.Document, error) {
	if strings.TrimSpace(htmlText) == "" {
		return nil, &RenderError{URL: baseURL, Err: fmt.Errorf("empty document")}
	}
	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil, &RenderError{URL: baseURL, Err: err}
	}
	doc := goquery.NewDocumentFromNode(root)
	r.logger.Debug("rendered document",
		logging.Field{Key: "url", Value: baseURL},
		logging.Field{Key: "bytes", Value: len(htmlText)})
	return doc, nil
}

// RenderFixture loads and parses one of the embedded fixture pages.
func (r *Renderer) RenderFixture(name string) (*goquery.Document, error) {
	raw, err := fixtureFS.ReadFile(name)
	if err != nil {
		return nil, &RenderError{URL: name, Err: fmt.Errorf("read fixture: %w", err)}
	}
	return r.Render(string(raw), name)
}
