// Package sse provides Server-Sent Events delivery of generated chat replies.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"funnel_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventToken   EventType = "token"
	EventContext EventType = "context"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

const defaultBuffer = 256

// Event represents an SSE event payload
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// queue buffers events for one session until a consumer drains them.
type queue struct {
	events    chan Event
	touched   time.Time
	consumers int
}

// Service keeps one delivery queue per chat session. Producers never block:
// when a queue is full the event is dropped and logged.
type Service struct {
	mu     sync.Mutex
	queues map[string]*queue
	buffer int
	closed bool
	now    func() time.Time
	log    *logger.Logger
}

// New creates a new SSE service
func New(buffer int, log *logger.Logger) *Service {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Service{
		queues: make(map[string]*queue),
		buffer: buffer,
		now:    time.Now,
		log:    log,
	}
}

// queueFor returns the session queue, creating it. Callers hold s.mu.
func (s *Service) queueFor(sessionID string) *queue {
	q, ok := s.queues[sessionID]
	if !ok {
		q = &queue{events: make(chan Event, s.buffer)}
		s.queues[sessionID] = q
	}
	q.touched = s.now()
	return q
}

// Publish sends an event to a session's queue and reports whether it was
// accepted.
func (s *Service) Publish(sessionID string, event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	q := s.queueFor(sessionID)
	select {
	case q.events <- event:
		return true
	default:
		s.log.Warn("SSE event buffer full", "session_id", sessionID, "type", event.Type)
		return false
	}
}

func (s *Service) attach(sessionID string) (*queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	q := s.queueFor(sessionID)
	q.consumers++
	return q, true
}

func (s *Service) detach(sessionID string, q *queue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.consumers--
	q.touched = s.now()
	if q.consumers == 0 && len(q.events) == 0 && s.queues[sessionID] == q {
		delete(s.queues, sessionID)
	}
}

// Handler returns a Gin handler that relays a session's queue until a done
// event is written or the client disconnects.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
			return
		}

		q, ok := s.attach(sessionID)
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stream closed"})
			return
		}
		defer s.detach(sessionID, q)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		c.SSEvent("connected", gin.H{"sessionId": sessionID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Debug("SSE client disconnected", "session_id", sessionID)
				return
			case event, ok := <-q.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
				if event.Type == EventDone {
					return
				}
			}
		}
	}
}

// Prune drops queues nobody consumed for longer than idle.
func (s *Service) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for id, q := range s.queues {
		if q.consumers == 0 && q.touched.Before(cutoff) {
			delete(s.queues, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live queues.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

// Close shuts down the SSE service
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, q := range s.queues {
		close(q.events)
	}
	s.queues = make(map[string]*queue)
}
