package debug

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
	"github.com/voitta-ai/jetbrains-voitta/internal/config"
	"github.com/voitta-ai/jetbrains-voitta/internal/dap"
	"github.com/voitta-ai/jetbrains-voitta/internal/errors"
	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

// Session is an explicit handle to one attached debug backend, threaded
// through every introspection call instead of an ambient process-wide
// lookup. All debuggee reads funnel through the session's access mutex:
// touching suspended-process state from a goroutine that has not acquired
// it is a correctness bug, not a performance concern.
type Session struct {
	ID        string
	Address   string
	CreatedAt time.Time

	backend backend.Backend
	client  *dap.Client // nil when the backend is not DAP-based
	cfg     *config.Config

	// access serializes all reads of debuggee state for this session.
	access sync.Mutex
}

// NewSession wraps a backend in a session handle. Used directly by tests;
// production sessions come from Manager.Attach.
func NewSession(b backend.Backend, cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		backend:   b,
		cfg:       cfg,
	}
}

// State reports coarse session status. Unlike the other operations it never
// fails: an unattached or running session simply reports inactive or
// unsuspended flags.
func (s *Session) State() types.SessionState {
	s.access.Lock()
	defer s.access.Unlock()
	return ReadState(s.backend)
}

// CaptureStack walks the suspended thread's call stack.
func (s *Session) CaptureStack(maxFrames int) ([]types.StackFrame, error) {
	s.access.Lock()
	defer s.access.Unlock()

	threadRef, err := s.suspendedThread()
	if err != nil {
		return nil, err
	}
	if maxFrames <= 0 {
		maxFrames = s.cfg.MaxStackFrames
	}

	walker := &StackWalker{Timeout: s.cfg.StackTimeout}
	return walker.CaptureStack(s.backend, threadRef, maxFrames), nil
}

// FrameVariables collects the variables of the frame at the given stack
// index. An out-of-range index is reported as a "Frame Access" info variable
// rather than a hard error, so callers always receive a serializable result
// once a suspended session exists.
//
// The index is resolved against a fresh stack walk; if the debuggee resumed
// and re-suspended since the caller obtained the index, it may now name a
// different logical frame. That race is an accepted limitation.
func (s *Session) FrameVariables(frameIndex int, opts CollectOptions) ([]types.Variable, error) {
	s.access.Lock()
	defer s.access.Unlock()

	threadRef, err := s.suspendedThread()
	if err != nil {
		return nil, err
	}

	frameRef, accessErr := s.frameRefByIndex(threadRef, frameIndex)
	if accessErr != nil {
		return []types.Variable{{
			Name:  "Frame Access",
			Value: fmt.Sprintf("<unavailable: %v>", accessErr),
			Scope: types.ScopeLocal,
		}}, nil
	}

	collector := NewCollector(NewFormatter(s.cfg.MaxFields, s.cfg.MaxValueLength))
	return collector.Collect(s.backend, frameRef, opts), nil
}

// Evaluate runs an expression in the context of the frame at frameIndex.
// Frame-resolution failures are reported inside the result, not raised, so
// the caller always gets an EvaluationResult with elapsed time.
func (s *Session) Evaluate(frameIndex int, expression string, timeout time.Duration) (types.EvaluationResult, error) {
	s.access.Lock()
	defer s.access.Unlock()

	start := time.Now()
	threadRef, err := s.suspendedThread()
	if err != nil {
		return types.EvaluationResult{}, err
	}

	frameRef, accessErr := s.frameRefByIndex(threadRef, frameIndex)
	if accessErr != nil {
		return types.EvaluationResult{
			Success:       false,
			Error:         accessErr.Error(),
			ElapsedMillis: time.Since(start).Milliseconds(),
		}, nil
	}

	if timeout <= 0 {
		timeout = s.cfg.EvaluateTimeout
	}
	formatter := NewFormatter(s.cfg.MaxFields, s.cfg.MaxValueLength)
	return EvaluateExpression(s.backend, frameRef, expression, timeout, formatter), nil
}

// SnapshotOptions selects which sections a snapshot includes.
type SnapshotOptions struct {
	IncludeStackTrace bool
	IncludeVariables  bool
	ExpandObjects     bool
	MaxStackFrames    int
}

// Snapshot composes session state, stack trace, and top-frame variables in
// one pass under a single access acquisition. Sections the caller did not
// request stay nil and serialize as absent. The snapshot is recomputed from
// scratch on every call; nothing is cached because the debuggee state is
// stale the instant execution resumes.
func (s *Session) Snapshot(opts SnapshotOptions) (types.Snapshot, error) {
	s.access.Lock()
	defer s.access.Unlock()

	threadRef, err := s.suspendedThread()
	if err != nil {
		return types.Snapshot{}, err
	}

	snap := types.Snapshot{
		SessionState: ReadState(s.backend),
		Timestamp:    time.Now(),
	}

	maxFrames := opts.MaxStackFrames
	if maxFrames <= 0 {
		maxFrames = s.cfg.MaxStackFrames
	}
	walker := &StackWalker{Timeout: s.cfg.StackTimeout}

	if opts.IncludeStackTrace {
		snap.StackFrames = walker.CaptureStack(s.backend, threadRef, maxFrames)
	}

	if opts.IncludeVariables {
		top, err := s.backend.TopFrame(threadRef)
		if err != nil {
			snap.FrameVariables = []types.Variable{{
				Name:  "Frame Access",
				Value: fmt.Sprintf("<unavailable: %v>", err),
				Scope: types.ScopeLocal,
			}}
		} else {
			collectOpts := DefaultCollectOptions()
			collectOpts.Expand = opts.ExpandObjects
			collectOpts.MaxDepth = s.cfg.MaxDepth
			collector := NewCollector(NewFormatter(s.cfg.MaxFields, s.cfg.MaxValueLength))
			snap.FrameVariables = collector.Collect(s.backend, top.Ref, collectOpts)
		}
	}

	return snap, nil
}

// Close disconnects the underlying client, if any.
func (s *Session) Close() {
	if s.client != nil {
		if err := s.client.Disconnect(false); err != nil {
			log.Printf("Warning: failed to disconnect session %s: %v (continuing cleanup)", s.ID, err)
		}
		if err := s.client.Close(); err != nil {
			log.Printf("Warning: failed to close client for session %s: %v (continuing cleanup)", s.ID, err)
		}
	}
}

// suspendedThread validates that the session can be introspected right now
// and returns the suspended thread's backend ref. Must be called with the
// access mutex held.
func (s *Session) suspendedThread() (int, error) {
	if s.backend == nil || !s.backend.Connected() {
		return 0, errors.NoSession()
	}
	if !s.backend.Suspended() {
		return 0, errors.NotSuspended()
	}
	threadRef, err := s.backend.CurrentThread()
	if err != nil {
		return 0, errors.Wrap(errors.CodeStackWalkFailed, fmt.Sprintf("failed to resolve suspended thread: %v", err), "", err)
	}
	return threadRef, nil
}

// frameRefByIndex resolves a stack index to the backend's frame handle via a
// fresh bounded walk. Must be called with the access mutex held.
func (s *Session) frameRefByIndex(threadRef, frameIndex int) (int, error) {
	if frameIndex < 0 {
		return 0, errors.InvalidParameter("frameIndex", frameIndex, "a non-negative stack index")
	}
	if frameIndex == 0 {
		// The innermost frame has a cheap synchronous path.
		top, err := s.backend.TopFrame(threadRef)
		if err != nil {
			return 0, errors.Wrap(errors.CodeStackWalkFailed, fmt.Sprintf("failed to read top frame: %v", err), "", err)
		}
		return top.Ref, nil
	}

	walker := &StackWalker{Timeout: s.cfg.StackTimeout}
	frames := walker.captureFrames(s.backend, threadRef)
	if frameIndex >= len(frames) {
		return 0, errors.FrameOutOfRange(frameIndex, len(frames))
	}
	return frames[frameIndex].Ref, nil
}

// Manager tracks attached sessions by ID plus the current session the
// inspection tools default to.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	current  string
	cfg      *config.Config
}

// NewManager creates an empty session manager.
func NewManager(cfg *config.Config) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// Attach connects to a DAP adapter at host:port, performs the protocol
// handshake, and registers the resulting session as current.
func (m *Manager) Attach(host string, port int, attachArgs map[string]interface{}) (*Session, error) {
	address := fmt.Sprintf("%s:%d", host, port)

	transport, err := dap.Dial(address, 10*time.Second)
	if err != nil {
		return nil, errors.AttachFailed(address, err)
	}

	client := dap.NewClient(transport)
	if _, err := client.Initialize("voitta-mcp", "Voitta MCP Server"); err != nil {
		_ = client.Close()
		return nil, errors.AttachFailed(address, err)
	}

	if attachArgs == nil {
		attachArgs = map[string]interface{}{}
	}
	argsJSON, err := json.Marshal(attachArgs)
	if err != nil {
		_ = client.Close()
		return nil, errors.AttachFailed(address, err)
	}
	if _, err := client.Attach(argsJSON); err != nil {
		_ = client.Close()
		return nil, errors.AttachFailed(address, err)
	}
	if err := client.ConfigurationDone(); err != nil {
		_ = client.Close()
		return nil, errors.AttachFailed(address, err)
	}

	session := NewSession(backend.NewDAPBackend(client), m.cfg)
	session.Address = address
	session.client = client

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.current = session.ID
	m.mu.Unlock()

	return session, nil
}

// Register adds a pre-built session (e.g. over a non-DAP backend) and makes
// it current.
func (m *Manager) Register(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.current = s.ID
	m.mu.Unlock()
}

// Get retrieves a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, errors.SessionNotFound(id)
	}
	return session, nil
}

// Current returns the current session, or the structured no-session error
// when nothing is attached.
func (m *Manager) Current() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == "" {
		return nil, errors.NoSession()
	}
	session, ok := m.sessions[m.current]
	if !ok {
		return nil, errors.NoSession()
	}
	return session, nil
}

// List returns all attached sessions.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Disconnect closes and removes a session. The current pointer moves to
// empty if it referenced the removed session.
func (m *Manager) Disconnect(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return errors.SessionNotFound(id)
	}
	session.Close()
	delete(m.sessions, id)
	if m.current == id {
		m.current = ""
	}
	return nil
}

// Close disconnects every session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		session.Close()
		delete(m.sessions, id)
	}
	m.current = ""
}
