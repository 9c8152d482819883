package intent

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"funnel_backend/platform/logger"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

type fakeFallback struct {
	label Label
	err   error
	calls int
}

func (f *fakeFallback) Classify(ctx context.Context, text string, allowed []Label) (Label, error) {
	f.calls++
	return f.label, f.err
}

type blockingFallback struct{}

func (blockingFallback) Classify(ctx context.Context, text string, allowed []Label) (Label, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func newTestClassifier(fb Fallback, opts Options) *Classifier {
	return NewClassifier(BuildRules(DefaultVocabulary("frono")), fb, opts, logger.Nop())
}

func TestCascadeOrder(t *testing.T) {
	fb := &fakeFallback{label: Support}
	c := newTestClassifier(fb, Options{})

	cases := []struct {
		in   string
		want Label
	}{
		{"jane@x.com", LeadSubmission},
		{"yes please, my email is jane@x.com", LeadSubmission},
		{"Who are you?", AboutBrand},
		{"about frono", AboutBrand},
		{"what is frono", AboutBrand},
		{"yes please", Affirmation},
		{"i want", Affirmation},
		{"I want to buy 2 oil filled radiators", Buying},
		{"how much is the quartz heater", Buying},
		{"where is my delivery", Support},
		{"thanks bye", Closing},
		{"ok", Closing},
		{"thanks, that was really helpful for choosing", Support}, // too long to close, falls through
		{"do you have oil filled radiators", ProductInfo},
		{"what sizes do they come in", ProductInfo},
		{"show me more", ProductInfo},
		{"hi there", Browsing},
	}
	for _, tc := range cases {
		if got := c.Classify(context.Background(), tc.in); got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestAffirmationRequiresShortMessage(t *testing.T) {
	c := newTestClassifier(&fakeFallback{label: Browsing}, Options{})
	if got := c.Classify(context.Background(), "yes I would like to see everything"); got == Affirmation {
		t.Fatalf("expected long message not to be an affirmation")
	}
}

func TestFallbackFailureDefaultsToBrowsing(t *testing.T) {
	c := newTestClassifier(&fakeFallback{err: errors.New("down")}, Options{})
	d := c.Decide(context.Background(), "what do you sell")
	if d.Label != Browsing || d.FallbackErr == nil {
		t.Fatalf("expected browsing with fallback error, got %+v", d)
	}
}

func TestFallbackUnknownLabelDefaultsToBrowsing(t *testing.T) {
	c := newTestClassifier(&fakeFallback{label: "WEATHER"}, Options{})
	if got := c.Classify(context.Background(), "what do you sell"); got != Browsing {
		t.Fatalf("expected browsing, got %s", got)
	}
}

func TestFallbackTimeoutIsBounded(t *testing.T) {
	c := newTestClassifier(blockingFallback{}, Options{Timeout: 20 * time.Millisecond})
	start := time.Now()
	got := c.Classify(context.Background(), "what do you sell")
	if got != Browsing {
		t.Fatalf("expected browsing after timeout, got %s", got)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("fallback was not bounded by timeout")
	}
}

func TestDomainRestrictedVariant(t *testing.T) {
	c := newTestClassifier(&fakeFallback{label: OutOfDomain}, Options{DomainRestricted: true})
	if got := c.Classify(context.Background(), "what do you sell"); got != OutOfDomain {
		t.Fatalf("expected out of domain from fallback, got %s", got)
	}

	long := "can you explain the history of the roman empire to my kids"
	c = newTestClassifier(&fakeFallback{err: errors.New("down")}, Options{DomainRestricted: true, OutOfDomainMinWords: 8})
	if got := c.Classify(context.Background(), long); got != OutOfDomain {
		t.Fatalf("expected long unmatched message to be out of domain, got %s", got)
	}

	c = newTestClassifier(&fakeFallback{label: OutOfDomain}, Options{})
	if got := c.Classify(context.Background(), "what do you sell"); got != Browsing {
		t.Fatalf("expected unrestricted classifier to reject OUT_OF_DOMAIN, got %s", got)
	}
}

func TestRulesDoNotCallFallback(t *testing.T) {
	fb := &fakeFallback{label: Support}
	c := newTestClassifier(fb, Options{})
	c.Classify(context.Background(), "buy a heater")
	if fb.calls != 0 {
		t.Fatalf("expected no fallback call for a rule match")
	}
}

type cannedLLM struct{ reply string }

func (m cannedLLM) Name() string { return "canned" }

func (m cannedLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		yield(&model.LLMResponse{Content: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(m.reply)}}}, nil)
	}
}

func TestLLMFallbackParsesReply(t *testing.T) {
	fb := NewLLMFallback(cannedLLM{reply: "  support.\n"})
	got, err := fb.Classify(context.Background(), "my parcel", FallbackLabels)
	if err != nil || got != Support {
		t.Fatalf("expected SUPPORT, got %s (%v)", got, err)
	}

	fb = NewLLMFallback(cannedLLM{reply: "I think this is OUT_OF_DOMAIN"})
	allowed := append(append([]Label(nil), FallbackLabels...), OutOfDomain)
	if got, _ := fb.Classify(context.Background(), "weather", allowed); got != OutOfDomain {
		t.Fatalf("expected OUT_OF_DOMAIN, got %s", got)
	}

	fb = NewLLMFallback(cannedLLM{reply: "no idea"})
	if _, err := fb.Classify(context.Background(), "x", FallbackLabels); !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
}
