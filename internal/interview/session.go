// Package interview runs the mock interview: it owns the session state,
// sequences the adapters for each user action, and serializes actions
// through a single dispatcher goroutine.
package interview

import (
	"github.com/google/uuid"

	"github.com/chaz8081/mock-interviewer/internal/types"
)

// State is the session lifecycle stage. It is derived, never stored.
type State string

const (
	StateAwaitingSetup State = "awaiting_setup"
	StateInProgress    State = "in_progress"
	StateEnded         State = "ended"
)

// NoticeLevel grades a user-facing message.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message produced by one command.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Session is the state of one user's interview. It is not safe for
// concurrent use; the Dispatcher confines it to one goroutine.
type Session struct {
	ID string

	domain   types.Domain
	messages []types.Message

	resume       string
	resumeSet    bool
	resumeLocked bool

	ended    bool
	analysis string

	notices []Notice
}

// NewSession returns an empty session on the default domain.
func NewSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		domain: types.DefaultDomain(),
	}
}

// State derives the lifecycle stage from the session fields.
func (s *Session) State() State {
	switch {
	case s.ended:
		return StateEnded
	case len(s.messages) > 0:
		return StateInProgress
	default:
		return StateAwaitingSetup
	}
}

// Domain returns the selected interview domain.
func (s *Session) Domain() types.Domain { return s.domain }

// Messages returns a copy of the conversation.
func (s *Session) Messages() []types.Message {
	return append([]types.Message(nil), s.messages...)
}

// Resume returns the extracted resume text and whether one was uploaded.
func (s *Session) Resume() (string, bool) { return s.resume, s.resumeSet }

// Analysis returns the stored performance analysis, if any.
func (s *Session) Analysis() string { return s.analysis }

// Notices returns the notices recorded since they were last cleared.
func (s *Session) Notices() []Notice {
	return append([]Notice(nil), s.notices...)
}

func (s *Session) notify(level NoticeLevel, msg string) {
	s.notices = append(s.notices, Notice{Level: level, Message: msg})
}

func (s *Session) clearNotices() {
	s.notices = nil
}

func (s *Session) append(role types.Role, content string) {
	s.messages = append(s.messages, types.Message{Role: role, Content: content})
}

// Snapshot is an immutable copy of session state for rendering.
type Snapshot struct {
	ID           string          `json:"id"`
	State        State           `json:"state"`
	Domain       types.Domain    `json:"domain"`
	DomainLocked bool            `json:"domain_locked"`
	Messages     []types.Message `json:"messages"`
	ResumeLoaded bool            `json:"resume_loaded"`
	ResumeLocked bool            `json:"resume_locked"`
	Analysis     string          `json:"analysis,omitempty"`
	Notices      []Notice        `json:"notices"`
}

// Snapshot copies the session.
func (s *Session) Snapshot() Snapshot {
	msgs := s.Messages()
	if msgs == nil {
		msgs = []types.Message{}
	}
	notices := s.Notices()
	if notices == nil {
		notices = []Notice{}
	}
	return Snapshot{
		ID:           s.ID,
		State:        s.State(),
		Domain:       s.domain,
		DomainLocked: s.State() != StateAwaitingSetup,
		Messages:     msgs,
		ResumeLoaded: s.resumeSet,
		ResumeLocked: s.resumeLocked,
		Analysis:     s.analysis,
		Notices:      notices,
	}
}
