package dap

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/go-dap"
)

// StoppedInfo records the most recent stop event from the adapter.
type StoppedInfo struct {
	Reason      string
	ThreadID    int
	Description string
	AllStopped  bool
}

// Client provides the inspection subset of DAP operations. Control requests
// (stepping, breakpoints, continuing) are intentionally absent: the server is
// a read-only introspection surface and the debuggee's lifecycle belongs to
// whatever launched it.
type Client struct {
	transport *Transport

	// Response correlation: request seq -> waiting channel.
	pendingRequests map[int]chan dap.Message
	mu              sync.Mutex

	// Suspension tracking, fed by stopped/continued/terminated events.
	stopMu     sync.Mutex
	stopped    *StoppedInfo
	terminated bool

	capabilities dap.Capabilities

	initialized     chan struct{}
	initializedOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a client over the given transport and starts its reader.
func NewClient(transport *Transport) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		transport:       transport,
		pendingRequests: make(map[int]chan dap.Message),
		initialized:     make(chan struct{}),
		ctx:             ctx,
		cancel:          cancel,
	}

	c.wg.Add(1)
	go c.readLoop()

	return c
}

// readLoop continuously reads messages from the transport.
func (c *Client) readLoop() {
	defer c.wg.Done()

	consecutiveErrors := 0
	const maxConsecutiveErrors = 5

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		msg, err := c.transport.Receive()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return
			default:
				consecutiveErrors++
				log.Printf("DAP transport error (attempt %d/%d): %v", consecutiveErrors, maxConsecutiveErrors, err)
				if consecutiveErrors >= maxConsecutiveErrors {
					log.Printf("DAP transport: too many consecutive errors, stopping read loop")
					c.markTerminated()
					return
				}
				continue
			}
		}

		consecutiveErrors = 0
		c.handleMessage(msg)
	}
}

// handleMessage routes one incoming message to its waiter or event handler.
func (c *Client) handleMessage(msg dap.Message) {
	var requestSeq int
	var isResponse bool

	switch m := msg.(type) {
	case *dap.InitializeResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.AttachResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.DisconnectResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ConfigurationDoneResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ThreadsResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.StackTraceResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ScopesResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.VariablesResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.EvaluateResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ErrorResponse:
		requestSeq, isResponse = m.RequestSeq, true

	case *dap.InitializedEvent:
		c.initializedOnce.Do(func() {
			close(c.initialized)
		})
		return
	case *dap.StoppedEvent:
		c.stopMu.Lock()
		c.stopped = &StoppedInfo{
			Reason:      m.Body.Reason,
			ThreadID:    m.Body.ThreadId,
			Description: m.Body.Description,
			AllStopped:  m.Body.AllThreadsStopped,
		}
		c.stopMu.Unlock()
		return
	case *dap.ContinuedEvent:
		c.stopMu.Lock()
		c.stopped = nil
		c.stopMu.Unlock()
		return
	case *dap.TerminatedEvent, *dap.ExitedEvent:
		c.markTerminated()
		return
	}

	if isResponse {
		c.mu.Lock()
		if ch, ok := c.pendingRequests[requestSeq]; ok {
			ch <- msg
			delete(c.pendingRequests, requestSeq)
		}
		c.mu.Unlock()
	}
	// Unknown events are dropped; nothing downstream consumes them.
}

func (c *Client) markTerminated() {
	c.stopMu.Lock()
	c.terminated = true
	c.stopped = nil
	c.stopMu.Unlock()
}

// Stopped returns the most recent stop event, or nil while running.
func (c *Client) Stopped() *StoppedInfo {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	return c.stopped
}

// Terminated reports whether the adapter or debuggee has gone away.
func (c *Client) Terminated() bool {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	return c.terminated
}

// sendRequest sends a request and waits for the matching response.
func (c *Client) sendRequest(req dap.RequestMessage, timeout time.Duration) (dap.Message, error) {
	seq := c.transport.NextSeq()

	switch r := req.(type) {
	case *dap.InitializeRequest:
		r.Seq = seq
	case *dap.AttachRequest:
		r.Seq = seq
	case *dap.DisconnectRequest:
		r.Seq = seq
	case *dap.ConfigurationDoneRequest:
		r.Seq = seq
	case *dap.ThreadsRequest:
		r.Seq = seq
	case *dap.StackTraceRequest:
		r.Seq = seq
	case *dap.ScopesRequest:
		r.Seq = seq
	case *dap.VariablesRequest:
		r.Seq = seq
	case *dap.EvaluateRequest:
		r.Seq = seq
	}

	respCh := make(chan dap.Message, 1)
	c.mu.Lock()
	c.pendingRequests[seq] = respCh
	c.mu.Unlock()

	if err := c.transport.Send(req); err != nil {
		c.mu.Lock()
		delete(c.pendingRequests, seq)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-time.After(timeout):
		c.mu.Lock()
		delete(c.pendingRequests, seq)
		c.mu.Unlock()
		return nil, fmt.Errorf("request timeout")
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

// Initialize performs the DAP handshake and records adapter capabilities.
func (c *Client) Initialize(clientID, clientName string) (*dap.InitializeResponse, error) {
	req := &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "initialize",
		},
		Arguments: dap.InitializeRequestArguments{
			ClientID:                     clientID,
			ClientName:                   clientName,
			AdapterID:                    "voitta-mcp",
			Locale:                       "en-US",
			LinesStartAt1:                true,
			ColumnsStartAt1:              true,
			PathFormat:                   "path",
			SupportsVariableType:         true,
			SupportsVariablePaging:       true,
			SupportsRunInTerminalRequest: false,
		},
	}

	resp, err := c.sendRequest(req, 10*time.Second)
	if err != nil {
		return nil, err
	}

	initResp, ok := resp.(*dap.InitializeResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	if !initResp.Success {
		return nil, fmt.Errorf("initialize failed: %s", initResp.Message)
	}

	c.capabilities = initResp.Body
	return initResp, nil
}

// WaitInitialized waits for the initialized event with a timeout.
func (c *Client) WaitInitialized(timeout time.Duration) error {
	select {
	case <-c.initialized:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for initialized event")
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// Attach sends an attach request with adapter-specific arguments.
func (c *Client) Attach(args []byte) (*dap.AttachResponse, error) {
	req := &dap.AttachRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "attach",
		},
		Arguments: args,
	}

	resp, err := c.sendRequest(req, 30*time.Second)
	if err != nil {
		return nil, err
	}

	attachResp, ok := resp.(*dap.AttachResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	if !attachResp.Success {
		return nil, fmt.Errorf("attach failed: %s", attachResp.Message)
	}
	return attachResp, nil
}

// ConfigurationDone signals that configuration is complete.
func (c *Client) ConfigurationDone() error {
	req := &dap.ConfigurationDoneRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "configurationDone",
		},
	}

	resp, err := c.sendRequest(req, 10*time.Second)
	if err != nil {
		return err
	}

	configResp, ok := resp.(*dap.ConfigurationDoneResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}
	if !configResp.Success {
		return fmt.Errorf("configurationDone failed: %s", configResp.Message)
	}
	return nil
}

// Disconnect ends the adapter session.
func (c *Client) Disconnect(terminateDebuggee bool) error {
	req := &dap.DisconnectRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "disconnect",
		},
		Arguments: &dap.DisconnectArguments{
			TerminateDebuggee: terminateDebuggee,
		},
	}

	resp, err := c.sendRequest(req, 10*time.Second)
	if err != nil {
		return err
	}

	disconnectResp, ok := resp.(*dap.DisconnectResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}
	if !disconnectResp.Success {
		return fmt.Errorf("disconnect failed: %s", disconnectResp.Message)
	}
	return nil
}

// Threads lists the debuggee's threads.
func (c *Client) Threads() ([]dap.Thread, error) {
	req := &dap.ThreadsRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "threads",
		},
	}

	resp, err := c.sendRequest(req, 10*time.Second)
	if err != nil {
		return nil, err
	}

	threadsResp, ok := resp.(*dap.ThreadsResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	if !threadsResp.Success {
		return nil, fmt.Errorf("threads request failed: %s", threadsResp.Message)
	}
	return threadsResp.Body.Threads, nil
}

// StackTrace fetches a page of stack frames for a thread.
func (c *Client) StackTrace(threadID, startFrame, levels int) ([]dap.StackFrame, int, error) {
	req := &dap.StackTraceRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "stackTrace",
		},
		Arguments: dap.StackTraceArguments{
			ThreadId:   threadID,
			StartFrame: startFrame,
			Levels:     levels,
		},
	}

	resp, err := c.sendRequest(req, 10*time.Second)
	if err != nil {
		return nil, 0, err
	}

	stackResp, ok := resp.(*dap.StackTraceResponse)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected response type: %T", resp)
	}
	if !stackResp.Success {
		return nil, 0, fmt.Errorf("stackTrace request failed: %s", stackResp.Message)
	}
	return stackResp.Body.StackFrames, stackResp.Body.TotalFrames, nil
}

// Scopes fetches the variable scopes of a stack frame.
func (c *Client) Scopes(frameID int) ([]dap.Scope, error) {
	req := &dap.ScopesRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "scopes",
		},
		Arguments: dap.ScopesArguments{
			FrameId: frameID,
		},
	}

	resp, err := c.sendRequest(req, 10*time.Second)
	if err != nil {
		return nil, err
	}

	scopesResp, ok := resp.(*dap.ScopesResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	if !scopesResp.Success {
		return nil, fmt.Errorf("scopes request failed: %s", scopesResp.Message)
	}
	return scopesResp.Body.Scopes, nil
}

// Variables fetches the children of a variables reference.
func (c *Client) Variables(variablesRef int) ([]dap.Variable, error) {
	req := &dap.VariablesRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "variables",
		},
		Arguments: dap.VariablesArguments{
			VariablesReference: variablesRef,
		},
	}

	resp, err := c.sendRequest(req, 10*time.Second)
	if err != nil {
		return nil, err
	}

	varsResp, ok := resp.(*dap.VariablesResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	if !varsResp.Success {
		return nil, fmt.Errorf("variables request failed: %s", varsResp.Message)
	}
	return varsResp.Body.Variables, nil
}

// Evaluate evaluates an expression in a frame's context.
func (c *Client) Evaluate(expression string, frameID int) (*dap.EvaluateResponseBody, error) {
	req := &dap.EvaluateRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "evaluate",
		},
		Arguments: dap.EvaluateArguments{
			Expression: expression,
			FrameId:    frameID,
			Context:    "watch",
		},
	}

	resp, err := c.sendRequest(req, 30*time.Second)
	if err != nil {
		return nil, err
	}

	evalResp, ok := resp.(*dap.EvaluateResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	if !evalResp.Success {
		return nil, fmt.Errorf("evaluate failed: %s", evalResp.Message)
	}
	return &evalResp.Body, nil
}

// Capabilities returns the capabilities from the initialize response.
func (c *Client) Capabilities() dap.Capabilities {
	return c.capabilities
}

// Close shuts down the client and its transport.
func (c *Client) Close() error {
	c.cancel()
	err := c.transport.Close()
	c.wg.Wait()
	return err
}
