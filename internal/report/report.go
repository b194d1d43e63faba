package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/avelines/a11yscan/internal/logging"
	"github.com/avelines/a11yscan/internal/model"
)

// ReportError is a document generation failure.
type ReportError struct {
	Stage string
	Err   error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report %s: %v", e.Stage, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

// Page geometry in points. Letter pages are 612x792pt; the flow budget
// is the Y position past which no further bounded-height block is
// started on the current page.
const (
	pageMargin     = 54.0
	contentWidth   = 612.0 - 2*pageMargin
	flowBudget     = 650.0
	summaryBudget  = 700.0
	maxExamples    = 3
	screenshotMaxW = 420.0
	screenshotMaxH = 260.0
)

// Config holds report output options.
type Config struct {
	// OutputDir is where generated PDFs are written.
	OutputDir string
}

// Generator renders scan results into paginated PDF documents. It is the
// fallback of last resort in the pipeline: the error and basic variants
// must succeed for any well-formed settings, and no variant may panic
// past its own boundary.
type Generator struct {
	cfg    Config
	logger logging.Logger
}

// New creates a Generator and ensures the output directory exists.
func New(cfg Config, logger logging.Logger) (*Generator, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("report: output dir is required")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("report: ensure output dir %s: %w", cfg.OutputDir, err)
	}
	return &Generator{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "report"}),
	}, nil
}

// Generate renders input into a PDF at a time-unique path under the
// output directory and returns that path. The render branch is selected
// by the input's mode; identical input produces identical page structure
// modulo the embedded timestamp.
func (g *Generator) Generate(input model.ReportInput, settings *model.ReportSettings) (path string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &ReportError{Stage: "render", Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	if settings == nil {
		settings = model.DefaultReportSettings("")
	}

	doc := newDocument(settings)

	switch input.Mode() {
	case model.ReportModeFull:
		doc.renderFull(input.Result())
	case model.ReportModeError:
		doc.renderError(input.URL(), input.ErrorMessage())
	case model.ReportModeBasic:
		doc.renderBasic(input.URL())
	default:
		return "", &ReportError{Stage: "dispatch", Err: fmt.Errorf("unknown report mode %d", input.Mode())}
	}

	if doc.pdf.Err() {
		return "", &ReportError{Stage: "render", Err: doc.pdf.Error()}
	}

	name := fmt.Sprintf("report-%d-%s.pdf", time.Now().UnixNano(), uuid.New().String()[:8])
	path = filepath.Join(g.cfg.OutputDir, name)
	if err := doc.pdf.OutputFileAndClose(path); err != nil {
		return "", &ReportError{Stage: "write", Err: err}
	}

	g.logger.Info("report written",
		logging.Field{Key: "path", Value: path},
		logging.Field{Key: "mode", Value: int(input.Mode())})
	return path, nil
}

// document wraps one in-progress PDF with the branding palette resolved
// to RGB.
type document struct {
	pdf      *fpdf.Fpdf
	settings *model.ReportSettings

	primary   rgb
	secondary rgb
	accent    rgb
	textMain  rgb
	textSub   rgb
}

type rgb struct{ r, g, b int }

// parseHex turns "#rrggbb" into components, falling back to near-black
// for anything malformed so a bad palette never fails a report.
func parseHex(hex string) rgb {
	var c rgb
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &c.r, &c.g, &c.b); err != nil {
		return rgb{17, 24, 39}
	}
	return c
}

func newDocument(settings *model.ReportSettings) *document {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle("Accessibility Audit Report", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	colors := settings.Colors
	if colors == (model.Palette{}) {
		colors = model.DefaultPalette()
	}

	return &document{
		pdf:       pdf,
		settings:  settings,
		primary:   parseHex(colors.Primary),
		secondary: parseHex(colors.Secondary),
		accent:    parseHex(colors.Accent),
		textMain:  parseHex(colors.TextPrimary),
		textSub:   parseHex(colors.TextSecondary),
	}
}

// ─── shared blocks ─────────────────────────────────────────────────────

func (d *document) heading(text string, size float64, c rgb) {
	d.pdf.SetFont("Helvetica", "B", size)
	d.pdf.SetTextColor(c.r, c.g, c.b)
	d.pdf.MultiCell(contentWidth, size+6, text, "", "L", false)
	d.pdf.Ln(6)
}

func (d *document) body(text string, c rgb) {
	d.pdf.SetFont("Helvetica", "", 11)
	d.pdf.SetTextColor(c.r, c.g, c.b)
	d.pdf.MultiCell(contentWidth, 15, text, "", "L", false)
}

func (d *document) mono(text string) {
	d.pdf.SetFont("Courier", "", 9)
	d.pdf.SetTextColor(d.textSub.r, d.textSub.g, d.textSub.b)
	d.pdf.MultiCell(contentWidth-18, 12, text, "", "L", false)
}

// ensureRoom starts a new page when a block of the given estimated
// height would push past the flow budget.
func (d *document) ensureRoom(blockHeight, budget float64) {
	if d.pdf.GetY()+blockHeight > budget {
		d.pdf.AddPage()
	}
}

func (d *document) cover(target string, when time.Time, screenshot string) {
	d.pdf.AddPage()

	// Brand band across the top of the cover
	d.pdf.SetFillColor(d.primary.r, d.primary.g, d.primary.b)
	d.pdf.Rect(0, 0, 612, 8, "F")

	d.pdf.SetY(120)
	d.pdf.SetFont("Helvetica", "B", 28)
	d.pdf.SetTextColor(d.textMain.r, d.textMain.g, d.textMain.b)
	d.pdf.MultiCell(contentWidth, 34, "Accessibility Audit Report", "", "C", false)

	d.pdf.SetFont("Helvetica", "", 14)
	d.pdf.SetTextColor(d.primary.r, d.primary.g, d.primary.b)
	d.pdf.MultiCell(contentWidth, 20, d.settings.CompanyName, "", "C", false)
	d.pdf.Ln(12)

	d.pdf.SetFont("Helvetica", "", 12)
	d.pdf.SetTextColor(d.textSub.r, d.textSub.g, d.textSub.b)
	if target != "" {
		d.pdf.MultiCell(contentWidth, 16, "Target: "+target, "", "C", false)
	}
	d.pdf.MultiCell(contentWidth, 16, "Generated: "+when.UTC().Format(time.RFC1123), "", "C", false)

	if screenshot != "" {
		d.embedScreenshot(screenshot)
	}

	if d.settings.ContactEmail != "" || d.settings.ContactPhone != "" {
		d.pdf.SetY(720)
		d.pdf.SetFont("Helvetica", "", 10)
		d.pdf.SetTextColor(d.secondary.r, d.secondary.g, d.secondary.b)
		contact := d.settings.ContactEmail
		if d.settings.ContactPhone != "" {
			if contact != "" {
				contact += "  |  "
			}
			contact += d.settings.ContactPhone
		}
		d.pdf.MultiCell(contentWidth, 14, contact, "", "C", false)
	}
}

// embedScreenshot draws the captured page image into a fixed bounding
// box on the cover. A malformed image is skipped, never fatal.
func (d *document) embedScreenshot(b64 string) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(raw) < 8 {
		return
	}
	// PNG magic; chromedp always hands back PNG.
	if !bytes.HasPrefix(raw, []byte{0x89, 'P', 'N', 'G'}) {
		return
	}

	name := "screenshot-" + uuid.New().String()[:8]
	info := d.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(raw))
	if d.pdf.Err() {
		d.pdf.ClearError()
		return
	}

	w, h := screenshotMaxW, screenshotMaxH
	if info != nil && info.Width() > 0 && info.Height() > 0 {
		ratio := info.Height() / info.Width()
		h = w * ratio
		if h > screenshotMaxH {
			h = screenshotMaxH
			w = h / ratio
		}
	}
	x := (612 - w) / 2
	d.pdf.ImageOptions(name, x, d.pdf.GetY()+24, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}

// ─── error mode ────────────────────────────────────────────────────────

func (d *document) renderError(target, msg string) {
	d.cover(target, time.Now(), "")

	d.pdf.AddPage()
	d.heading("Scan could not be completed", 20, d.textMain)
	d.body("The automated audit ran into a problem and no findings are available for this page. The underlying error was:", d.textSub)
	d.pdf.Ln(8)
	d.mono(msg)
	d.pdf.Ln(16)
	d.body("Common causes are pages that block automated clients, targets that are offline, and markup the scanner cannot process. Re-submitting the scan later often resolves transient failures.", d.textSub)
}

// ─── basic mode ────────────────────────────────────────────────────────

func (d *document) renderBasic(target string) {
	d.pdf.AddPage()
	d.pdf.SetFillColor(d.primary.r, d.primary.g, d.primary.b)
	d.pdf.Rect(0, 0, 612, 8, "F")

	d.pdf.SetY(140)
	d.heading("Accessibility Report (incomplete)", 22, d.textMain)
	if target != "" {
		d.body("Target: "+target, d.textSub)
		d.pdf.Ln(8)
	}
	d.body("No scan results were available when this report was generated, so it contains no findings. This usually means the audit pipeline could not run against the submitted URL.", d.textSub)
	d.pdf.Ln(12)
	d.body("To verify your setup without network access, submit one of the reserved identifiers \"test\", \"test-sample\" or \"test-accessible\"; these audit bundled sample pages and always produce a full report.", d.textSub)
}

// ─── full mode ─────────────────────────────────────────────────────────

func (d *document) renderFull(res *model.ScanResult) {
	d.cover(res.URL, res.ScannedAt, res.Screenshot)
	d.summaryPage(res)
	d.findingsPages(res.Violations)
	d.passesPage(res.Passes)
	d.manualReviewPage(res.Incomplete)
	d.nextStepsPage()
}

func impactColor(impact model.Impact) rgb {
	switch impact.Normalize() {
	case model.ImpactCritical:
		return rgb{185, 28, 28}
	case model.ImpactSerious:
		return rgb{194, 65, 12}
	case model.ImpactModerate:
		return rgb{161, 98, 7}
	default:
		return rgb{75, 85, 99}
	}
}

func (d *document) summaryPage(res *model.ScanResult) {
	d.pdf.AddPage()
	d.heading("Executive Summary", 20, d.textMain)

	rating := ComputeRating(res.Violations)
	counts := countByImpact(res.Violations)

	d.body(fmt.Sprintf(
		"The automated ruleset found %d violations, %d passing checks and %d items needing manual review.",
		len(res.Violations), len(res.Passes), len(res.Incomplete)), d.textSub)
	d.pdf.Ln(10)

	d.pdf.SetFont("Helvetica", "B", 13)
	d.pdf.SetTextColor(d.textMain.r, d.textMain.g, d.textMain.b)
	d.pdf.CellFormat(220, 22, "WCAG compliance rating:", "", 0, "L", false, 0, "")
	rc := impactColor(model.ImpactModerate)
	switch rating {
	case RatingLow:
		rc = impactColor(model.ImpactCritical)
	case RatingHigh:
		rc = rgb{21, 128, 61}
	}
	d.pdf.SetTextColor(rc.r, rc.g, rc.b)
	d.pdf.CellFormat(0, 22, string(rating), "", 1, "L", false, 0, "")
	d.pdf.Ln(12)

	// Severity table
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.SetFillColor(243, 244, 246)
	d.pdf.SetTextColor(d.textMain.r, d.textMain.g, d.textMain.b)
	d.pdf.CellFormat(252, 20, "Severity", "1", 0, "L", true, 0, "")
	d.pdf.CellFormat(252, 20, "Violations", "1", 1, "R", true, 0, "")
	d.pdf.SetFont("Helvetica", "", 11)
	for _, impact := range model.ImpactOrder {
		c := impactColor(impact)
		d.pdf.SetTextColor(c.r, c.g, c.b)
		d.pdf.CellFormat(252, 20, string(impact), "1", 0, "L", false, 0, "")
		d.pdf.SetTextColor(d.textMain.r, d.textMain.g, d.textMain.b)
		d.pdf.CellFormat(252, 20, fmt.Sprintf("%d", counts[impact]), "1", 1, "R", false, 0, "")
	}
	d.pdf.Ln(16)

	switch rating {
	case RatingLow:
		d.body("Severe or numerous accessibility barriers were detected. Users relying on assistive technology are likely unable to complete key tasks on this page. Remediation of the critical and serious findings should be prioritized.", d.textSub)
	case RatingMedium:
		d.body("A number of accessibility issues were detected. Most content is likely usable with assistive technology, but several barriers will degrade the experience and should be addressed.", d.textSub)
	default:
		d.body("Few automated issues were detected. Continue with the manual review items below, since automated checks cover only part of the WCAG success criteria.", d.textSub)
	}
}

func (d *document) findingsPages(violations []model.Violation) {
	d.pdf.AddPage()
	d.heading("Detailed Findings", 20, d.textMain)

	if len(violations) == 0 {
		d.body("No violations were detected by the automated ruleset.", d.textSub)
		return
	}

	groups := groupByImpact(violations)
	for _, impact := range model.ImpactOrder {
		group := groups[impact]
		if len(group) == 0 {
			continue
		}

		d.ensureRoom(60, flowBudget)
		c := impactColor(impact)
		d.pdf.SetFont("Helvetica", "B", 15)
		d.pdf.SetTextColor(c.r, c.g, c.b)
		d.pdf.CellFormat(0, 24, fmt.Sprintf("%s (%d)", titleCase(string(impact)), len(group)), "", 1, "L", false, 0, "")
		d.pdf.Ln(4)

		for _, v := range group {
			d.violationBlock(v)
		}
		d.pdf.Ln(8)
	}
}

func (d *document) violationBlock(v model.Violation) {
	shown, more := capNodes(v.Nodes, maxExamples)

	// Rough block height: title + help + one line per example.
	estimate := 56.0 + float64(len(shown))*26
	d.ensureRoom(estimate, flowBudget)

	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.SetTextColor(d.textMain.r, d.textMain.g, d.textMain.b)
	d.pdf.MultiCell(contentWidth, 16, v.RuleID+": "+v.Description, "", "L", false)

	if v.Help != "" {
		d.pdf.SetFont("Helvetica", "", 10)
		d.pdf.SetTextColor(d.textSub.r, d.textSub.g, d.textSub.b)
		d.pdf.MultiCell(contentWidth, 14, v.Help, "", "L", false)
	}

	for _, n := range shown {
		snippet := n.HTML
		if snippet == "" {
			snippet = n.Selector
		}
		d.pdf.SetX(pageMargin + 18)
		d.mono(snippet)
	}
	if more > 0 {
		d.pdf.SetX(pageMargin + 18)
		d.pdf.SetFont("Helvetica", "I", 9)
		d.pdf.SetTextColor(d.secondary.r, d.secondary.g, d.secondary.b)
		d.pdf.MultiCell(contentWidth-18, 12, fmt.Sprintf("...and %d more", more), "", "L", false)
	}
	d.pdf.Ln(10)
}

func (d *document) passesPage(passes []model.Pass) {
	d.pdf.AddPage()
	d.heading("Passing Checks", 20, d.textMain)

	if len(passes) == 0 {
		d.body("No checks passed; see the findings section.", d.textSub)
		return
	}

	byCategory := make(map[string][]model.Pass)
	var order []string
	for _, p := range passes {
		cat := p.Category
		if cat == "" {
			cat = "general"
		}
		if _, ok := byCategory[cat]; !ok {
			order = append(order, cat)
		}
		byCategory[cat] = append(byCategory[cat], p)
	}

	for _, cat := range order {
		group := byCategory[cat]
		d.ensureRoom(40+float64(minInt(len(group), maxExamples))*16, summaryBudget)

		d.pdf.SetFont("Helvetica", "B", 12)
		d.pdf.SetTextColor(d.accent.r, d.accent.g, d.accent.b)
		d.pdf.CellFormat(0, 20, titleCase(cat), "", 1, "L", false, 0, "")

		d.pdf.SetFont("Helvetica", "", 10)
		d.pdf.SetTextColor(d.textSub.r, d.textSub.g, d.textSub.b)
		for i, p := range group {
			if i == maxExamples {
				d.pdf.SetFont("Helvetica", "I", 9)
				d.pdf.MultiCell(contentWidth, 13, fmt.Sprintf("...and %d more", len(group)-maxExamples), "", "L", false)
				break
			}
			d.pdf.MultiCell(contentWidth, 14, "- "+p.Description, "", "L", false)
		}
		d.pdf.Ln(6)
	}
}

func (d *document) manualReviewPage(items []model.IncompleteItem) {
	d.pdf.AddPage()
	d.heading("Needs Manual Review", 20, d.textMain)

	if len(items) == 0 {
		d.body("Every selected rule produced a definitive outcome.", d.textSub)
		return
	}

	d.body("The automated ruleset could not decide the following checks. A reviewer should verify them by hand.", d.textSub)
	d.pdf.Ln(8)

	for _, item := range items {
		d.ensureRoom(50, flowBudget)
		d.pdf.SetFont("Helvetica", "B", 12)
		d.pdf.SetTextColor(d.textMain.r, d.textMain.g, d.textMain.b)
		d.pdf.MultiCell(contentWidth, 16, item.RuleID+": "+item.Description, "", "L", false)
		if item.Reason != "" {
			d.pdf.SetFont("Helvetica", "", 10)
			d.pdf.SetTextColor(d.textSub.r, d.textSub.g, d.textSub.b)
			d.pdf.MultiCell(contentWidth, 14, item.Reason, "", "L", false)
		}
		shown, more := capNodes(item.Nodes, maxExamples)
		for _, n := range shown {
			d.pdf.SetX(pageMargin + 18)
			d.mono(n.HTML)
		}
		if more > 0 {
			d.pdf.SetX(pageMargin + 18)
			d.pdf.SetFont("Helvetica", "I", 9)
			d.pdf.SetTextColor(d.secondary.r, d.secondary.g, d.secondary.b)
			d.pdf.MultiCell(contentWidth-18, 12, fmt.Sprintf("...and %d more", more), "", "L", false)
		}
		d.pdf.Ln(8)
	}
}

func (d *document) nextStepsPage() {
	d.pdf.AddPage()
	d.heading("Resources & Next Steps", 20, d.textMain)

	d.body("Automated scanning covers roughly a third of the WCAG success criteria. For full conformance, pair these findings with keyboard-only walkthroughs, screen reader testing and a review of dynamic behavior.", d.textSub)
	d.pdf.Ln(10)

	steps := []string{
		"Fix critical and serious violations first; they tend to block task completion outright.",
		"Re-scan after each round of fixes to confirm regressions have not been introduced.",
		"Work through the manual review section with a keyboard and a screen reader.",
		"Document the accessibility statement and a contact route for users who hit barriers.",
	}
	d.pdf.SetFont("Helvetica", "", 11)
	d.pdf.SetTextColor(d.textSub.r, d.textSub.g, d.textSub.b)
	for i, s := range steps {
		d.pdf.MultiCell(contentWidth, 16, fmt.Sprintf("%d. %s", i+1, s), "", "L", false)
		d.pdf.Ln(2)
	}
	d.pdf.Ln(10)

	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.SetTextColor(d.textMain.r, d.textMain.g, d.textMain.b)
	d.pdf.CellFormat(0, 18, "Further reading", "", 1, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetTextColor(d.accent.r, d.accent.g, d.accent.b)
	for _, link := range []string{
		"https://www.w3.org/WAI/WCAG21/quickref/",
		"https://www.w3.org/WAI/test-evaluate/",
		"https://www.w3.org/WAI/planning-and-managing/",
	} {
		d.pdf.MultiCell(contentWidth, 14, link, "", "L", false)
	}

	if d.settings.Website != "" {
		d.pdf.Ln(14)
		d.pdf.SetFont("Helvetica", "", 10)
		d.pdf.SetTextColor(d.secondary.r, d.secondary.g, d.secondary.b)
		d.pdf.MultiCell(contentWidth, 14, "Prepared by "+d.settings.CompanyName+", "+d.settings.Website, "", "L", false)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	out := []rune(s)
	if out[0] >= 'a' && out[0] <= 'z' {
		out[0] = out[0] - 'a' + 'A'
	}
	return string(out)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
