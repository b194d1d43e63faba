package evaluator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/avelines/a11yscan/internal/model"
)

type outcomeKind int

const (
	outcomePass outcomeKind = iota
	outcomeViolation
	outcomeIncomplete
)

type outcome struct {
	kind   outcomeKind
	nodes  []model.NodeRef
	detail string
}

func pass() outcome { return outcome{kind: outcomePass} }

func violation(nodes []model.NodeRef) outcome {
	return outcome{kind: outcomeViolation, nodes: nodes}
}

func incomplete(nodes []model.NodeRef, reason string) outcome {
	return outcome{kind: outcomeIncomplete, nodes: nodes, detail: reason}
}

// rule is one entry in the fixed ruleset table. check must be a pure
// function of the document.
type rule struct {
	id          string
	description string
	help        string
	helpURL     string
	category    string
	impact      model.Impact
	tags        []string
	check       func(doc *goquery.Document) outcome
}

const snippetLimit = 160

// node captures a selection as a NodeRef with a bounded HTML snippet.
func node(s *goquery.Selection, selector string) model.NodeRef {
	snippet, err := goquery.OuterHtml(s)
	if err != nil {
		snippet = ""
	}
	snippet = strings.TrimSpace(snippet)
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit] + "..."
	}
	return model.NodeRef{HTML: snippet, Selector: selector}
}

var vagueLinkText = regexp.MustCompile(`(?i)^(click here|here|link|read more|more|learn more)$`)

// builtinRules returns the ruleset in its fixed evaluation order. Rule
// identifiers follow the naming used by common automated WCAG engines so
// report readers can look them up.
func builtinRules() []rule {
	return []rule{
		{
			id:          "image-alt",
			description: "Images must have alternate text",
			help:        "Add an alt attribute to every informative image; use alt=\"\" for purely decorative ones.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/non-text-content.html",
			category:    "text-alternatives",
			impact:      model.ImpactCritical,
			tags:        []string{TagWCAG2A},
			check:       checkImageAlt,
		},
		{
			id:          "label",
			description: "Form controls must have accessible names",
			help:        "Associate every input with a label element, or give it an aria-label.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/info-and-relationships.html",
			category:    "forms",
			impact:      model.ImpactCritical,
			tags:        []string{TagWCAG2A},
			check:       checkLabels,
		},
		{
			id:          "button-name",
			description: "Buttons must have discernible text",
			help:        "Give every button visible text or an aria-label.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/label-in-name.html",
			category:    "name-role-value",
			impact:      model.ImpactCritical,
			tags:        []string{TagWCAG2A},
			check:       checkButtonNames,
		},
		{
			id:          "link-name",
			description: "Links must have discernible text",
			help:        "Empty links are invisible to assistive technology; add text or an aria-label.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/link-purpose-in-context.html",
			category:    "name-role-value",
			impact:      model.ImpactSerious,
			tags:        []string{TagWCAG2A},
			check:       checkLinkNames,
		},
		{
			id:          "link-text",
			description: "Links should have descriptive text",
			help:        "Replace generic phrases like \"click here\" with text that states the destination.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/link-purpose-in-context.html",
			category:    "name-role-value",
			impact:      model.ImpactModerate,
			tags:        []string{TagBestPractice},
			check:       checkLinkText,
		},
		{
			id:          "html-has-lang",
			description: "The html element must have a lang attribute",
			help:        "Declare the page language, e.g. <html lang=\"en\">.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/language-of-page.html",
			category:    "language",
			impact:      model.ImpactSerious,
			tags:        []string{TagWCAG2A},
			check:       checkHTMLLang,
		},
		{
			id:          "document-title",
			description: "Documents must have a non-empty title",
			help:        "Add a descriptive <title> element inside <head>.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/page-titled.html",
			category:    "semantics",
			impact:      model.ImpactSerious,
			tags:        []string{TagWCAG2A},
			check:       checkDocumentTitle,
		},
		{
			id:          "heading-order",
			description: "Heading levels should increase by one",
			help:        "Start the outline at h1 and avoid skipping levels.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/info-and-relationships.html",
			category:    "semantics",
			impact:      model.ImpactModerate,
			tags:        []string{TagBestPractice},
			check:       checkHeadingOrder,
		},
		{
			id:          "page-has-heading-one",
			description: "Pages should contain a level-one heading",
			help:        "Add exactly one h1 naming the page's main content.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/info-and-relationships.html",
			category:    "semantics",
			impact:      model.ImpactModerate,
			tags:        []string{TagBestPractice},
			check:       checkHasHeadingOne,
		},
		{
			id:          "region",
			description: "Pages should have landmarks or a skip link",
			help:        "Wrap primary content in <main> and navigation in <nav>, or provide a skip link.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/bypass-blocks.html",
			category:    "keyboard",
			impact:      model.ImpactModerate,
			tags:        []string{TagBestPractice},
			check:       checkRegions,
		},
		{
			id:          "duplicate-id",
			description: "IDs must be unique within the document",
			help:        "Rename duplicated id attributes; assistive technology resolves only the first.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/parsing.html",
			category:    "parsing",
			impact:      model.ImpactMinor,
			tags:        []string{TagWCAG2A},
			check:       checkDuplicateIDs,
		},
		{
			id:          "meta-viewport",
			description: "Zooming must not be disabled",
			help:        "Remove user-scalable=no and keep maximum-scale at 2 or above.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/resize-text.html",
			category:    "sensory-and-visual-cues",
			impact:      model.ImpactSerious,
			tags:        []string{TagWCAG2AA},
			check:       checkMetaViewport,
		},
		{
			id:          "image-dimensions",
			description: "Images should declare width and height",
			help:        "Declared dimensions prevent layout shift while images load.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/reflow.html",
			category:    "structure",
			impact:      model.ImpactMinor,
			tags:        []string{TagBestPractice},
			check:       checkImageDimensions,
		},
		{
			id:          "color-contrast",
			description: "Text must have sufficient contrast against its background",
			help:        "Verify foreground/background contrast ratios of at least 4.5:1 for body text.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/contrast-minimum.html",
			category:    "color",
			impact:      model.ImpactSerious,
			tags:        []string{TagWCAG2AA},
			check:       checkColorContrast,
		},
		{
			id:          "status-messages",
			description: "Status messages must be announced to assistive technology",
			help:        "Give dynamic message regions role=\"status\", role=\"alert\" or aria-live.",
			helpURL:     "https://www.w3.org/WAI/WCAG21/Understanding/status-messages.html",
			category:    "aria",
			impact:      model.ImpactModerate,
			tags:        []string{TagWCAG2AA},
			check:       checkStatusMessages,
		},
	}
}

func checkImageAlt(doc *goquery.Document) outcome {
	var nodes []model.NodeRef
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if strings.HasPrefix(src, "data:") {
			return
		}
		if _, ok := s.Attr("alt"); !ok {
			nodes = append(nodes, node(s, fmt.Sprintf("img[src=%s]", truncate(src, 40))))
		}
	})
	if len(nodes) > 0 {
		return violation(nodes)
	}
	return pass()
}

func checkLabels(doc *goquery.Document) outcome {
	var nodes []model.NodeRef
	doc.Find("input, textarea, select").Each(func(_ int, s *goquery.Selection) {
		typ := strings.ToLower(s.AttrOr("type", ""))
		switch typ {
		case "hidden", "submit", "button", "reset", "image":
			return
		}
		if hasAccessibleName(doc, s) {
			return
		}
		name := s.AttrOr("name", s.AttrOr("id", typ))
		nodes = append(nodes, node(s, fmt.Sprintf("input[name=%s]", name)))
	})
	if len(nodes) > 0 {
		return violation(nodes)
	}
	return pass()
}

// hasAccessibleName mirrors the accessible-name heuristics automated
// engines apply to form controls: wrapping label, label[for], aria
// attributes, or a placeholder as a weak fallback.
func hasAccessibleName(doc *goquery.Document, s *goquery.Selection) bool {
	if s.ParentsFiltered("label").Length() > 0 {
		return true
	}
	if _, ok := s.Attr("aria-label"); ok {
		return true
	}
	if _, ok := s.Attr("aria-labelledby"); ok {
		return true
	}
	if s.AttrOr("placeholder", "") != "" {
		return true
	}
	if id := s.AttrOr("id", ""); id != "" {
		if doc.Find(fmt.Sprintf(`label[for=%q]`, id)).Length() > 0 {
			return true
		}
	}
	return false
}

func checkButtonNames(doc *goquery.Document) outcome {
	var nodes []model.NodeRef
	doc.Find("button").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "" {
			return
		}
		if s.AttrOr("aria-label", "") != "" {
			return
		}
		nodes = append(nodes, node(s, fmt.Sprintf("button[type=%s]", s.AttrOr("type", "button"))))
	})
	if len(nodes) > 0 {
		return violation(nodes)
	}
	return pass()
}

func checkLinkNames(doc *goquery.Document) outcome {
	var nodes []model.NodeRef
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "" {
			return
		}
		if s.AttrOr("aria-label", "") != "" {
			return
		}
		if s.Find("img").Length() > 0 {
			return
		}
		nodes = append(nodes, node(s, fmt.Sprintf("a[href=%s]", truncate(s.AttrOr("href", ""), 40))))
	})
	if len(nodes) > 0 {
		return violation(nodes)
	}
	return pass()
}

func checkLinkText(doc *goquery.Document) outcome {
	var nodes []model.NodeRef
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || !vagueLinkText.MatchString(text) {
			return
		}
		nodes = append(nodes, node(s, fmt.Sprintf("a[href=%s]", truncate(s.AttrOr("href", ""), 40))))
	})
	if len(nodes) > 0 {
		return violation(nodes)
	}
	return pass()
}

func checkHTMLLang(doc *goquery.Document) outcome {
	html := doc.Find("html")
	if strings.TrimSpace(html.AttrOr("lang", "")) != "" {
		return pass()
	}
	return violation([]model.NodeRef{node(html, "html")})
}

func checkDocumentTitle(doc *goquery.Document) outcome {
	title := doc.Find("head title")
	if strings.TrimSpace(title.Text()) != "" {
		return pass()
	}
	return violation([]model.NodeRef{{HTML: "<head>", Selector: "head"}})
}

func checkHeadingOrder(doc *goquery.Document) outcome {
	var nodes []model.NodeRef
	prev := 0
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level := int(goquery.NodeName(s)[1] - '0')
		if (prev == 0 && level != 1) || (prev > 0 && level > prev+1) {
			nodes = append(nodes, node(s, goquery.NodeName(s)))
		}
		prev = level
	})
	if len(nodes) > 0 {
		return violation(nodes)
	}
	return pass()
}

func checkHasHeadingOne(doc *goquery.Document) outcome {
	if doc.Find("h1").Length() > 0 {
		return pass()
	}
	return violation([]model.NodeRef{{HTML: "<body>", Selector: "body"}})
}

func checkRegions(doc *goquery.Document) outcome {
	if doc.Find(`main, nav, [role="main"], [role="navigation"]`).Length() > 0 {
		return pass()
	}
	skip := false
	doc.Find("a[href^='#']").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(strings.ToLower(s.Text()), "skip") {
			skip = true
		}
	})
	if skip {
		return pass()
	}
	return violation([]model.NodeRef{{HTML: "<body>", Selector: "body"}})
}

func checkDuplicateIDs(doc *goquery.Document) outcome {
	seen := map[string]int{}
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		seen[s.AttrOr("id", "")]++
	})
	var nodes []model.NodeRef
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if seen[id] > 1 {
			nodes = append(nodes, node(s, "#"+id))
			seen[id] = 0 // report each duplicated id once
		}
	})
	if len(nodes) > 0 {
		return violation(nodes)
	}
	return pass()
}

func checkMetaViewport(doc *goquery.Document) outcome {
	meta := doc.Find(`meta[name="viewport"]`)
	content, ok := meta.Attr("content")
	if !ok {
		return pass()
	}
	blocked := false
	for _, part := range strings.Split(content, ",") {
		key, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.ToLower(strings.TrimSpace(val))
		if key == "user-scalable" && (val == "no" || val == "0") {
			blocked = true
		}
		if key == "maximum-scale" {
			if scale, err := strconv.ParseFloat(val, 64); err == nil && scale < 2 {
				blocked = true
			}
		}
	}
	if blocked {
		return violation([]model.NodeRef{node(meta, `meta[name="viewport"]`)})
	}
	return pass()
}

func checkImageDimensions(doc *goquery.Document) outcome {
	var nodes []model.NodeRef
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if strings.HasPrefix(src, "data:") {
			return
		}
		_, hasW := s.Attr("width")
		_, hasH := s.Attr("height")
		if hasW && hasH {
			return
		}
		nodes = append(nodes, node(s, fmt.Sprintf("img[src=%s]", truncate(src, 40))))
	})
	if len(nodes) > 0 {
		return violation(nodes)
	}
	return pass()
}

// checkColorContrast cannot resolve computed styles from static markup,
// so any page with visible text is flagged for manual review.
func checkColorContrast(doc *goquery.Document) outcome {
	if strings.TrimSpace(doc.Find("body").Text()) == "" {
		return pass()
	}
	return incomplete(nil, "contrast ratios depend on computed styles and need manual verification")
}

func checkStatusMessages(doc *goquery.Document) outcome {
	var nodes []model.NodeRef
	doc.Find(`[class*="alert"], [class*="flash"], [class*="toast"], [class*="notice"]`).Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("aria-live"); ok {
			return
		}
		role := s.AttrOr("role", "")
		if role == "alert" || role == "status" {
			return
		}
		nodes = append(nodes, node(s, "."+strings.Fields(s.AttrOr("class", ""))[0]))
	})
	if len(nodes) > 0 {
		return incomplete(nodes, "confirm these message regions are announced via role or aria-live")
	}
	return pass()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
