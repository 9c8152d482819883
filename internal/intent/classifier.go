package intent

import (
	"context"
	"errors"
	"time"

	"funnel_backend/platform/logger"
)

// Fallback is the external classifier consulted when no rule matches.
type Fallback interface {
	Classify(ctx context.Context, text string, allowed []Label) (Label, error)
}

// ErrUnknownLabel is returned by fallbacks whose answer names no allowed label.
var ErrUnknownLabel = errors.New("fallback answered with an unknown label")

// Options configures a Classifier.
type Options struct {
	// Timeout bounds the fallback call.
	Timeout time.Duration
	// DomainRestricted enables the OUT_OF_DOMAIN label.
	DomainRestricted bool
	// OutOfDomainMinWords is the length above which an unmatched message is
	// treated as out of domain when restricted.
	OutOfDomainMinWords int
}

// Decision records which rule produced a label.
type Decision struct {
	Label       Label
	Rule        string
	FallbackErr error
}

// Classifier evaluates the cascade. It is safe for concurrent use.
type Classifier struct {
	rules    []Rule
	fallback Fallback
	opts     Options
	log      *logger.Logger
}

func NewClassifier(rules []Rule, fallback Fallback, opts Options, log *logger.Logger) *Classifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.OutOfDomainMinWords <= 0 {
		opts.OutOfDomainMinWords = 8
	}
	return &Classifier{rules: rules, fallback: fallback, opts: opts, log: log}
}

// Classify returns the label for utterance. It never fails.
func (c *Classifier) Classify(ctx context.Context, utterance string) Label {
	return c.Decide(ctx, utterance).Label
}

// Decide is Classify plus the rule name, for metrics and logging.
func (c *Classifier) Decide(ctx context.Context, utterance string) Decision {
	in := NewInput(utterance)
	for _, rule := range c.rules {
		if rule.Match(in) {
			return Decision{Label: rule.Label, Rule: rule.Name}
		}
	}
	return c.fallbackDecision(ctx, in)
}

func (c *Classifier) fallbackDecision(ctx context.Context, in Input) Decision {
	safe := Browsing
	if c.opts.DomainRestricted && in.Words > c.opts.OutOfDomainMinWords {
		safe = OutOfDomain
	}
	if c.fallback == nil {
		return Decision{Label: safe, Rule: "default"}
	}

	allowed := FallbackLabels
	if c.opts.DomainRestricted {
		allowed = append(append([]Label(nil), FallbackLabels...), OutOfDomain)
	}

	fctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	label, err := c.fallback.Classify(fctx, in.Text, allowed)
	if err == nil && !contains(allowed, label) {
		err = ErrUnknownLabel
	}
	if err != nil {
		c.log.Warn("intent fallback failed, using safe label", "error", err, "label", safe)
		return Decision{Label: safe, Rule: "fallback", FallbackErr: err}
	}
	return Decision{Label: label, Rule: "fallback"}
}

func contains(labels []Label, l Label) bool {
	for _, candidate := range labels {
		if candidate == l {
			return true
		}
	}
	return false
}
