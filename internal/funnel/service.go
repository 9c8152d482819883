// Package funnel composes intent classification, the session state machine,
// stock reservations, lead scoring and context retrieval into one call per
// shopper message. All work for a session happens under that session's lock.
package funnel

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"funnel_backend/internal/catalog/domain"
	"funnel_backend/internal/events"
	"funnel_backend/internal/intent"
	leadsvc "funnel_backend/internal/leads/service"
	"funnel_backend/internal/reservation"
	"funnel_backend/internal/retrieval"
	"funnel_backend/internal/scoring"
	"funnel_backend/internal/session"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultStoreTimeout = 2 * time.Second
	defaultLockTimeout  = 5 * time.Second
)

// Classifier labels an utterance. *intent.Classifier satisfies it.
type Classifier interface {
	Decide(ctx context.Context, utterance string) intent.Decision
}

// Retriever picks the verified context for a reply.
type Retriever interface {
	Retrieve(ctx context.Context, query string, label intent.Label, sess *session.Session) (*retrieval.VerifiedContext, error)
}

// LeadCapturer stores contact details handed over in chat.
type LeadCapturer interface {
	Capture(ctx context.Context, in leadsvc.Capture) (uuid.UUID, error)
}

// Deps are the collaborators of the funnel.
type Deps struct {
	Sessions     session.Store
	Reservations *reservation.Manager
	Products     domain.ProductStore
	Classifier   Classifier
	Retriever    Retriever
	Leads        LeadCapturer
	Bus          events.Bus
	// Weights supplies the current scoring weights, typically from settings.
	Weights      func(ctx context.Context) scoring.Weights
	Topics       *session.TopicExtractor
	Menus        *session.KeywordMenus
	Continuation func(text string) bool
	Metrics      *Metrics
}

// Options tunes timeouts and the clock.
type Options struct {
	StoreTimeout time.Duration
	LockTimeout  time.Duration
	Now          func() time.Time
}

// Result is everything the transport needs to answer one message. Context
// is nil when nothing verified matched: the caller must send the safe reply
// and skip generation.
type Result struct {
	Intent   intent.Label
	Context  *retrieval.VerifiedContext
	Session  *session.Session
	Score    int
	LeadHook bool
	Notice   string
}

// Service handles shopper messages.
type Service struct {
	deps         Deps
	storeTimeout time.Duration
	lockTimeout  time.Duration
	now          func() time.Time
	log          *logger.Logger
}

func New(deps Deps, opts Options, log *logger.Logger) *Service {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Weights == nil {
		deps.Weights = func(context.Context) scoring.Weights { return scoring.DefaultWeights() }
	}
	if deps.Topics == nil {
		deps.Topics = session.NewTopicExtractor(nil)
	}
	if deps.Continuation == nil {
		deps.Continuation = func(string) bool { return false }
	}
	return &Service{
		deps:         deps,
		storeTimeout: opts.StoreTimeout,
		lockTimeout:  opts.LockTimeout,
		now:          opts.Now,
		log:          log,
	}
}

// turn carries the state of one message through the pipeline.
type turn struct {
	sess       *session.Session
	label      intent.Label
	text       string
	topic      string
	source     retrieval.Source
	notice     string
	order      *reservation.CommitResult
	qty        int
	newContact bool
}

func (t *turn) setNotice(source retrieval.Source, notice string) {
	t.source = source
	t.notice = notice
}

// HandleMessage runs one shopper message through the funnel.
func (s *Service) HandleMessage(ctx context.Context, sessionID, utterance string) (Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Result{}, apperr.Validation("sessionId is required")
	}
	if strings.TrimSpace(utterance) == "" {
		return Result{}, apperr.Validation("message is required")
	}

	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	sess, err := s.load(ctx, sessionID, true)
	if err != nil {
		return Result{}, err
	}

	sess.AppendTurn(utterance)
	text := utterance
	s.deps.Menus.Apply(sess, text)
	if item, ok := sess.ResolveMenu(text); ok {
		text = item
	}

	decision := s.deps.Classifier.Decide(ctx, text)
	s.recordDecision(decision)

	t := &turn{sess: sess, label: decision.Label, text: text, topic: sess.LastTopic}
	if qty, ok := extractQuantity(text); ok && takesQuantity(t.label) {
		t.qty = qty
		sess.ReservedQty = qty
	}

	if err := s.advance(ctx, t); err != nil {
		return Result{}, err
	}

	weights := s.deps.Weights(ctx)
	score := scoring.Update(weights, &sess.Lead, t.label, text)

	s.captureLead(ctx, t)

	vc := s.verifiedContext(ctx, t)

	hook := scoring.ShouldTriggerHook(weights, &sess.Lead) ||
		(sess.Stage == session.StageCheckout && !sess.Lead.ContactCaptured)
	if hook {
		scoring.MarkHookShown(&sess.Lead)
	}

	sess.Touch(s.now())
	if err := s.save(ctx, sess); err != nil {
		return Result{}, err
	}

	return Result{
		Intent:   t.label,
		Context:  vc,
		Session:  sess.Clone(),
		Score:    score,
		LeadHook: hook,
		Notice:   t.notice,
	}, nil
}

// RecordReply stores the generated reply on the session's latest turn.
func (s *Service) RecordReply(ctx context.Context, sessionID, reply string) error {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.load(ctx, sessionID, false)
	if err != nil {
		return err
	}
	if sess == nil {
		return apperr.NotFound("session not found")
	}
	if !sess.RecordReply(reply) {
		return nil
	}
	return s.save(ctx, sess)
}

func (s *Service) advance(ctx context.Context, t *turn) error {
	switch t.label {
	case intent.ProductInfo:
		return s.onProductInfo(ctx, t)
	case intent.Buying:
		return s.onBuying(ctx, t, false)
	case intent.Affirmation:
		return s.onBuying(ctx, t, true)
	case intent.LeadSubmission:
		return s.onContact(ctx, t)
	default:
		return nil
	}
}

// verifiedContext prefers the funnel's own notice over a store lookup.
func (s *Service) verifiedContext(ctx context.Context, t *turn) *retrieval.VerifiedContext {
	if t.notice != "" {
		s.deps.Metrics.contextSource(string(t.source))
		return &retrieval.VerifiedContext{Source: t.source, Note: t.notice}
	}
	vc, err := s.deps.Retriever.Retrieve(ctx, t.text, t.label, t.sess)
	if err != nil {
		s.log.Warn("context retrieval failed", "session_id", t.sess.ID, "error", err)
		vc = nil
	}
	if vc == nil {
		s.deps.Metrics.contextSource("none")
		return nil
	}
	s.deps.Metrics.contextSource(string(vc.Source))
	return vc
}

func (s *Service) captureLead(ctx context.Context, t *turn) {
	if !t.newContact || s.deps.Leads == nil {
		return
	}
	topic := t.sess.LastTopic
	if topic == "" {
		topic = t.topic
	}
	_, err := s.deps.Leads.Capture(ctx, leadsvc.Capture{
		SessionID: t.sess.ID,
		Contact:   contactOf(t.sess),
		Intent:    t.label.String(),
		Score:     t.sess.Lead.Score,
		Topic:     topic,
		Announce:  t.order == nil,
	})
	if err != nil {
		s.log.Warn("lead capture failed", "session_id", t.sess.ID, "error", err)
	}
}

func (s *Service) recordDecision(d intent.Decision) {
	s.deps.Metrics.message(d.Label.String())
	switch d.Rule {
	case "fallback":
		if d.FallbackErr != nil {
			s.deps.Metrics.fallback("error")
		} else {
			s.deps.Metrics.fallback("ok")
		}
	case "default":
		s.deps.Metrics.fallback("disabled")
	}
}

func (s *Service) setStage(t *turn, to session.Stage) {
	from, changed := t.sess.SetStage(to)
	if !changed {
		return
	}
	s.log.FunnelTransition(t.sess.ID, string(from), string(to), t.label.String())
	s.deps.Metrics.transition(string(from), string(to))
}

func (s *Service) lock(ctx context.Context, sessionID string) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	unlock, err := s.deps.Sessions.Lock(lctx, sessionID)
	if errors.Is(err, session.ErrLockTimeout) {
		return nil, apperr.Wrap(apperr.KindUnavailable, "session is busy, please retry", err)
	}
	if err != nil {
		s.log.StoreError("session.lock", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to lock session", err)
	}
	return unlock, nil
}

// load returns the stored session. With create set a missing session is
// started fresh; otherwise nil is returned.
func (s *Service) load(ctx context.Context, sessionID string, create bool) (*session.Session, error) {
	sctx, cancel := s.bounded(ctx)
	defer cancel()

	sess, ok, err := s.deps.Sessions.Get(sctx, sessionID)
	if err != nil {
		s.log.StoreError("session.get", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load session", err)
	}
	if ok {
		return sess, nil
	}
	if !create {
		return nil, nil
	}
	s.log.Debug("session started", slog.String("session_id", sessionID))
	return session.New(sessionID, s.now()), nil
}

func (s *Service) save(ctx context.Context, sess *session.Session) error {
	sctx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.deps.Sessions.Put(sctx, sess); err != nil {
		s.log.StoreError("session.put", err)
		return apperr.Wrap(apperr.KindInternal, "failed to save session", err)
	}
	return nil
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(ctx, e)
	}
}
