package model

import "time"

// Impact classifies the severity of a rule outcome.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
	ImpactMinor    Impact = "minor"
)

// Normalize maps an absent impact to critical. Rules without an explicit
// classification are treated as most severe rather than being dropped.
func (i Impact) Normalize() Impact {
	switch i {
	case ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor:
		return i
	default:
		return ImpactCritical
	}
}

// Weight orders impacts for presentation, lowest number first.
func (i Impact) Weight() int {
	switch i.Normalize() {
	case ImpactCritical:
		return 0
	case ImpactSerious:
		return 1
	case ImpactModerate:
		return 2
	default:
		return 3
	}
}

// ImpactOrder is the fixed presentation order for findings groups.
var ImpactOrder = []Impact{ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor}

// NodeRef describes one DOM node an outcome applies to.
type NodeRef struct {
	// HTML is the outer HTML snippet of the node.
	HTML string `json:"html"`

	// Selector locates the node in the document, best effort.
	Selector string `json:"selector,omitempty"`
}

// Violation is a rule failure detected against the rendered DOM.
type Violation struct {
	RuleID      string   `json:"id"`
	Description string   `json:"description"`
	Impact      Impact   `json:"impact,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Nodes       []NodeRef `json:"nodes,omitempty"`

	// Help is remediation guidance for this rule.
	Help    string `json:"help,omitempty"`
	HelpURL string `json:"helpUrl,omitempty"`

	// Extra holds evaluator-specific metadata that has no dedicated field.
	Extra map[string]string `json:"extra,omitempty"`
}

// Pass is a rule that the document satisfied.
type Pass struct {
	RuleID      string   `json:"id"`
	Description string   `json:"description"`
	Impact      Impact   `json:"impact,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Nodes       []NodeRef `json:"nodes,omitempty"`

	// Category groups passing rules for report presentation.
	Category string `json:"category,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// IncompleteItem is a rule whose outcome could not be decided
// automatically and needs manual review.
type IncompleteItem struct {
	RuleID      string   `json:"id"`
	Description string   `json:"description"`
	Impact      Impact   `json:"impact,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Nodes       []NodeRef `json:"nodes,omitempty"`

	// Reason says why the rule could not be decided.
	Reason string `json:"reason,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// Evaluation is the raw output of one ruleset run.
type Evaluation struct {
	Violations []Violation
	Passes     []Pass
	Incomplete []IncompleteItem
}

// ScanResult is the ephemeral, in-memory outcome of one pipeline run.
// It is built by the evaluator (or synthesized as a degraded stand-in),
// consumed once by the report renderer, then discarded. It is never
// persisted as a row.
type ScanResult struct {
	Violations []Violation
	Passes     []Pass
	Incomplete []IncompleteItem

	// Screenshot is a base64-encoded PNG, empty when capture failed or
	// was skipped. Absence is a normal case.
	Screenshot string

	// Error carries a pipeline failure message. Non-empty selects the
	// error report branch.
	Error string

	// ScannedAt is when the evaluation ran.
	ScannedAt time.Time

	// URL is the resolved target the result describes.
	URL string
}
