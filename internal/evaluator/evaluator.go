package evaluator

import (
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avelines/a11yscan/internal/logging"
	"github.com/avelines/a11yscan/internal/model"
)

// Guideline tags a rule can carry. The evaluator runs a rule when at
// least one of its tags is in the requested set.
const (
	TagWCAG2A       = "wcag2a"
	TagWCAG2AA      = "wcag2aa"
	TagBestPractice = "best-practice"
)

// EvalError wraps a ruleset execution failure, including recovered
// panics from individual rules.
type EvalError struct {
	RuleID string
	Err    error
}

func (e *EvalError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("evaluating rule %s: %v", e.RuleID, e.Err)
	}
	return fmt.Sprintf("evaluation failed: %v", e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Options filters which rules run.
type Options struct {
	// Tags is the guideline tag filter. Empty means all tags.
	Tags []string
}

// DefaultOptions runs WCAG level A, level AA and best-practice rules.
func DefaultOptions() Options {
	return Options{Tags: []string{TagWCAG2A, TagWCAG2AA, TagBestPractice}}
}

// Evaluator runs the fixed accessibility ruleset against a rendered
// document. Evaluation is a pure function of DOM structure: re-running
// against an unchanged document yields the same classification.
type Evaluator struct {
	opts   Options
	rules  []rule
	logger logging.Logger
}

// New creates an Evaluator with the built-in ruleset.
func New(opts Options, logger logging.Logger) *Evaluator {
	if len(opts.Tags) == 0 {
		opts = DefaultOptions()
	}
	return &Evaluator{
		opts:   opts,
		rules:  builtinRules(),
		logger: logger.With(logging.Field{Key: "component", Value: "evaluator"}),
	}
}

func (e *Evaluator) tagWanted(tags []string) bool {
	for _, t := range tags {
		for _, want := range e.opts.Tags {
			if t == want {
				return true
			}
		}
	}
	return false
}

// Evaluate runs every selected rule against doc, in a fixed order, and
// returns the three outcome collections. A panic inside a rule is
// recovered and surfaced as *EvalError rather than crashing the caller.
func (e *Evaluator) Evaluate(doc *goquery.Document) (ev *model.Evaluation, err error) {
	if doc == nil {
		return nil, &EvalError{Err: fmt.Errorf("nil document")}
	}

	started := time.Now()
	result := &model.Evaluation{}

	for _, r := range e.rules {
		if !e.tagWanted(r.tags) {
			continue
		}
		out, ruleErr := runRule(r, doc)
		if ruleErr != nil {
			return nil, ruleErr
		}

		switch out.kind {
		case outcomeViolation:
			result.Violations = append(result.Violations, model.Violation{
				RuleID:      r.id,
				Description: r.description,
				Impact:      r.impact,
				Tags:        r.tags,
				Nodes:       out.nodes,
				Help:        r.help,
				HelpURL:     r.helpURL,
			})
		case outcomeIncomplete:
			result.Incomplete = append(result.Incomplete, model.IncompleteItem{
				RuleID:      r.id,
				Description: r.description,
				Impact:      r.impact,
				Tags:        r.tags,
				Nodes:       out.nodes,
				Reason:      out.detail,
			})
		default:
			result.Passes = append(result.Passes, model.Pass{
				RuleID:      r.id,
				Description: r.description,
				Impact:      r.impact,
				Tags:        r.tags,
				Category:    r.category,
			})
		}
	}

	e.logger.Debug("ruleset complete",
		logging.Field{Key: "violations", Value: len(result.Violations)},
		logging.Field{Key: "passes", Value: len(result.Passes)},
		logging.Field{Key: "incomplete", Value: len(result.Incomplete)},
		logging.Field{Key: "elapsed", Value: time.Since(started).String()})
	return result, nil
}

// runRule isolates one rule so a panic is attributed to it.
func runRule(r rule, doc *goquery.Document) (out outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &EvalError{RuleID: r.id, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	out = r.check(doc)
	return out, nil
}
