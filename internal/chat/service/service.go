// Package service turns funnel results into shopper-facing replies. A turn
// without verified context is answered with the configured safe reply and
// never reaches the generator.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"funnel_backend/internal/chat/transport"
	"funnel_backend/internal/funnel"
	"funnel_backend/internal/notification/sse"
	settingsdomain "funnel_backend/internal/settings/domain"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/sanitize"

	"github.com/google/uuid"
	"google.golang.org/adk/model"
)

const (
	defaultGenerateTimeout = 30 * time.Second
	sourceNone             = "none"
	statusStarted          = "started"
)

// Funnel is the conversation core.
type Funnel interface {
	HandleMessage(ctx context.Context, sessionID, utterance string) (funnel.Result, error)
	RecordReply(ctx context.Context, sessionID, reply string) error
}

// SettingsSource supplies the bot name and the safe reply.
type SettingsSource interface {
	Current(ctx context.Context) settingsdomain.Settings
}

// Publisher delivers stream events to a session's queue.
type Publisher interface {
	Publish(sessionID string, event sse.Event) bool
}

type Options struct {
	Brand           string
	GenerateTimeout time.Duration
}

type Service struct {
	funnel   Funnel
	llm      model.LLM
	settings SettingsSource
	hub      Publisher
	brand    string
	timeout  time.Duration
	wg       sync.WaitGroup
	log      *logger.Logger
}

// New builds the chat service. llm may be nil, in which case replies are the
// verified context text itself.
func New(f Funnel, llm model.LLM, settings SettingsSource, hub Publisher, opts Options, log *logger.Logger) *Service {
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = defaultGenerateTimeout
	}
	return &Service{
		funnel:   f,
		llm:      llm,
		settings: settings,
		hub:      hub,
		brand:    opts.Brand,
		timeout:  opts.GenerateTimeout,
		log:      log,
	}
}

// Reply handles one message and returns the complete answer.
func (s *Service) Reply(ctx context.Context, req transport.ChatRequest) (transport.ChatResponse, error) {
	sessionID := issueSessionID(req.SessionID)
	req.Prompt = sanitize.Text(req.Prompt)
	res, err := s.funnel.HandleMessage(ctx, sessionID, req.Prompt)
	if err != nil {
		return transport.ChatResponse{}, err
	}

	cfg := s.settings.Current(ctx)
	reply := cfg.SafeNoDataReply
	if res.Context != nil {
		gctx, cancel := context.WithTimeout(ctx, s.timeout)
		reply = s.generate(gctx, sessionID, cfg, req.Prompt, res)
		cancel()
	}

	if err := s.funnel.RecordReply(ctx, sessionID, reply); err != nil {
		return transport.ChatResponse{}, err
	}

	meta := turnMeta(res)
	return transport.ChatResponse{
		SessionID: sessionID,
		Reply:     reply,
		Intent:    meta.Intent,
		Stage:     meta.Stage,
		Score:     meta.Score,
		LeadHook:  meta.LeadHook,
		Source:    meta.Source,
	}, nil
}

// Stream runs the funnel step synchronously and generates the reply in the
// background into the session's delivery queue. Generation outlives the
// request so a disconnecting client does not lose the recorded reply.
func (s *Service) Stream(ctx context.Context, req transport.ChatRequest) (transport.StreamStarted, error) {
	sessionID := issueSessionID(req.SessionID)
	req.Prompt = sanitize.Text(req.Prompt)
	res, err := s.funnel.HandleMessage(ctx, sessionID, req.Prompt)
	if err != nil {
		return transport.StreamStarted{}, err
	}
	cfg := s.settings.Current(ctx)

	s.hub.Publish(sessionID, sse.Event{Type: sse.EventContext, Data: turnMeta(res)})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		reply := s.streamReply(gctx, sessionID, cfg, req.Prompt, res)
		if err := s.funnel.RecordReply(gctx, sessionID, reply); err != nil {
			s.log.Warn("failed to record streamed reply", "session_id", sessionID, "error", err)
		}
		s.hub.Publish(sessionID, sse.Event{Type: sse.EventDone})
	}()

	return transport.StreamStarted{SessionID: sessionID, Status: statusStarted}, nil
}

// Wait blocks until background generations finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) generate(ctx context.Context, sessionID string, cfg settingsdomain.Settings, message string, res funnel.Result) string {
	grounded := res.Context.Text()
	if s.llm == nil {
		return grounded
	}

	req := BuildRequest(SystemPrompt(cfg.BotName, s.brand), s.brand, message, res)
	var out strings.Builder
	for resp, err := range s.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			s.log.Warn("reply generation failed, using verified context", "session_id", sessionID, "error", err)
			return grounded
		}
		out.WriteString(responseText(resp))
	}
	if reply := strings.TrimSpace(out.String()); reply != "" {
		return reply
	}
	return grounded
}

func (s *Service) streamReply(ctx context.Context, sessionID string, cfg settingsdomain.Settings, message string, res funnel.Result) string {
	if res.Context == nil {
		s.token(sessionID, cfg.SafeNoDataReply)
		return cfg.SafeNoDataReply
	}
	grounded := res.Context.Text()
	if s.llm == nil {
		s.token(sessionID, grounded)
		return grounded
	}

	req := BuildRequest(SystemPrompt(cfg.BotName, s.brand), s.brand, message, res)
	var full strings.Builder
	streamed := false
	for resp, err := range s.llm.GenerateContent(ctx, req, true) {
		if err != nil {
			s.log.Warn("reply stream failed", "session_id", sessionID, "error", err)
			s.hub.Publish(sessionID, sse.Event{Type: sse.EventError, Message: "reply generation failed"})
			break
		}
		if resp == nil {
			continue
		}
		text := responseText(resp)
		if resp.Partial {
			streamed = true
			full.WriteString(text)
			s.token(sessionID, text)
			continue
		}
		// A final response repeats the streamed text.
		if !streamed && text != "" {
			full.WriteString(text)
			s.token(sessionID, text)
		}
	}

	if strings.TrimSpace(full.String()) == "" {
		s.token(sessionID, grounded)
		return grounded
	}
	return full.String()
}

func (s *Service) token(sessionID, text string) {
	if text == "" {
		return
	}
	if !s.hub.Publish(sessionID, sse.Event{Type: sse.EventToken, Message: text}) {
		s.log.Debug("stream token dropped", "session_id", sessionID)
	}
}

func responseText(resp *model.LLMResponse) string {
	if resp == nil || resp.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func turnMeta(res funnel.Result) transport.TurnMeta {
	meta := transport.TurnMeta{
		Intent:   res.Intent.String(),
		Score:    res.Score,
		LeadHook: res.LeadHook,
		Source:   sourceNone,
	}
	if res.Session != nil {
		meta.Stage = string(res.Session.Stage)
	}
	if res.Context != nil {
		meta.Source = string(res.Context.Source)
	}
	return meta
}

func issueSessionID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
