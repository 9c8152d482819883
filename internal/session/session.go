// Package session holds the per-visitor negotiation state and the stores
// that persist it. Callers mutate a Session only while holding its lock.
package session

import (
	"strconv"
	"strings"
	"time"

	"funnel_backend/internal/catalog/domain"
	"funnel_backend/internal/scoring"
)

// Stage is the funnel position of a session.
type Stage string

const (
	StageBrowsing  Stage = "browsing"
	StageInterest  Stage = "interest"
	StageCheckout  Stage = "checkout"
	StageConverted Stage = "converted"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
)

// Advanced reports whether the stage is past checkout and must not regress
// on ordinary product or buying messages.
func (s Stage) Advanced() bool {
	return s == StageConverted || s == StageCompleted
}

const maxHistory = 6

// Turn is one exchange. Bot is empty until the reply is recorded.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot,omitempty"`
}

// Listing remembers the last collection listing so "show more" can page it.
type Listing struct {
	Groups   []string `json:"groups,omitempty"`
	Query    string   `json:"query,omitempty"`
	Offset   int      `json:"offset"`
	PageSize int      `json:"pageSize"`
	Total    int      `json:"total"`
}

// HasMore reports whether another page exists after the current one.
func (l *Listing) HasMore() bool {
	return l != nil && l.Offset+l.PageSize < l.Total
}

// Session is the state of one visitor.
type Session struct {
	ID              string          `json:"id"`
	Stage           Stage           `json:"stage"`
	SelectedProduct *domain.Product `json:"selectedProduct,omitempty"`
	LastTopic       string          `json:"lastTopic,omitempty"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	ReservedQty     int             `json:"reservedQty,omitempty"`
	History         []Turn          `json:"history,omitempty"`
	Menu            []string        `json:"menu,omitempty"`
	Listing         *Listing        `json:"listing,omitempty"`
	Lead            scoring.State   `json:"lead"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// New starts a session in the browsing stage.
func New(id string, now time.Time) *Session {
	return &Session{ID: id, Stage: StageBrowsing, CreatedAt: now, UpdatedAt: now}
}

// Clone returns a deep copy safe to hand outside the session lock.
func (s *Session) Clone() *Session {
	c := *s
	if s.SelectedProduct != nil {
		p := *s.SelectedProduct
		c.SelectedProduct = &p
	}
	c.History = append([]Turn(nil), s.History...)
	c.Menu = append([]string(nil), s.Menu...)
	if s.Listing != nil {
		l := *s.Listing
		l.Groups = append([]string(nil), s.Listing.Groups...)
		c.Listing = &l
	}
	c.Lead.History = append([]scoring.Change(nil), s.Lead.History...)
	return &c
}

// SetStage moves the session and reports the previous stage.
func (s *Session) SetStage(to Stage) (from Stage, changed bool) {
	from = s.Stage
	s.Stage = to
	return from, from != to
}

// AppendTurn records a user message, keeping the last six turns.
func (s *Session) AppendTurn(user string) {
	s.History = append(s.History, Turn{User: user})
	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}

// RecordReply fills the bot side of the latest turn.
func (s *Session) RecordReply(reply string) bool {
	if len(s.History) == 0 {
		return false
	}
	s.History[len(s.History)-1].Bot = reply
	return true
}

// PriorTurns returns completed turns before the current message.
func (s *Session) PriorTurns() []Turn {
	if len(s.History) <= 1 {
		return nil
	}
	out := make([]Turn, 0, len(s.History)-1)
	for _, t := range s.History[:len(s.History)-1] {
		if t.Bot != "" {
			out = append(out, t)
		}
	}
	return out
}

// SetMenu replaces the indexed choice list.
func (s *Session) SetMenu(items []string) {
	s.Menu = append([]string(nil), items...)
}

// ResolveMenu maps a digit-only message to the menu item it selects.
func (s *Session) ResolveMenu(text string) (string, bool) {
	clean := strings.TrimSpace(text)
	n, err := strconv.Atoi(clean)
	if err != nil || strings.ContainsAny(clean, "+-") {
		return "", false
	}
	if n < 1 || n > len(s.Menu) {
		return "", false
	}
	return s.Menu[n-1], true
}

// SelectProduct records p and reports whether it replaced a different
// product. A switch means any reservation must be reset first.
func (s *Session) SelectProduct(p domain.Product) (switched bool) {
	switched = s.SelectedProduct != nil && s.SelectedProduct.SKU != p.SKU
	s.SelectedProduct = &p
	return switched
}

// CaptureEmail stores the first email seen. Later addresses are ignored.
func (s *Session) CaptureEmail(email string) bool {
	if s.Email != "" || email == "" {
		return false
	}
	s.Email = email
	return true
}

// CapturePhone stores the first phone number seen.
func (s *Session) CapturePhone(phone string) bool {
	if s.Phone != "" || phone == "" {
		return false
	}
	s.Phone = phone
	return true
}

// ResetOrder clears the order attempt after completion or a topic switch.
func (s *Session) ResetOrder() {
	s.SelectedProduct = nil
	s.LastTopic = ""
	s.ReservedQty = 0
	s.Menu = nil
	s.Listing = nil
}

// IsNewTopic reports whether topic differs from what the session is
// currently negotiating.
func (s *Session) IsNewTopic(topic string) bool {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return false
	}
	if s.LastTopic != "" && topic == strings.ToLower(s.LastTopic) {
		return false
	}
	if s.SelectedProduct != nil && strings.Contains(strings.ToLower(s.SelectedProduct.Name), topic) {
		return false
	}
	return s.LastTopic != "" || s.SelectedProduct != nil
}

// Touch stamps UpdatedAt.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}
