package interview

import (
	"context"
	"log"

	"github.com/AtDexters-Lab/nexus-interview/internal/config"
	"github.com/AtDexters-Lab/nexus-interview/internal/conn"
	"github.com/AtDexters-Lab/nexus-interview/internal/dispatch"
	"github.com/AtDexters-Lab/nexus-interview/internal/iface"
	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
	"github.com/AtDexters-Lab/nexus-interview/internal/session"
)

// Snapshot is a read-only view of the client for rendering.
type Snapshot struct {
	ClientID conn.ClientID
	State    conn.ConnectionState
	Phase    session.Phase
}

// Connected reports whether commands can currently be sent.
func (s Snapshot) Connected() bool {
	return s.State == conn.StateConnected
}

// Client is the interview session client: one connection to the server and
// the phase view driven by it.
type Client struct {
	id      conn.ClientID
	machine *session.Machine
	manager *conn.Manager
}

// New creates a client with a fresh ClientID. The callbacks are invoked from
// the connection's event loop; they may call back into the client.
func New(cfg *config.Config, callbacks iface.Callbacks, opts ...conn.Option) *Client {
	id := conn.NewClientID()
	machine := session.NewMachine()
	dispatcher := dispatch.New(machine, callbacks)
	return &Client{
		id:      id,
		machine: machine,
		manager: conn.NewManager(cfg, id, dispatcher, callbacks, opts...),
	}
}

// ID returns the identifier this client presents to the server.
func (c *Client) ID() conn.ClientID {
	return c.id
}

// Run processes connection events until ctx is done. Cancelling ctx
// disconnects and releases the connection and any pending reconnect.
func (c *Client) Run(ctx context.Context) {
	c.manager.Run(ctx)
}

func (c *Client) Connect() {
	c.manager.Connect()
}

func (c *Client) Disconnect() {
	c.manager.Disconnect()
}

// StartInterview asks the server to begin an interview for the given job
// description and resume. The first question arrives asynchronously.
func (c *Client) StartInterview(jobDescription, resume string) {
	c.manager.Send(protocol.EventStartInterview, protocol.StartInterviewPayload{
		JobDescription: jobDescription,
		Resume:         resume,
	})
}

// SubmitAnswer sends the answer to the current question.
func (c *Client) SubmitAnswer(answer string) {
	c.manager.Send(protocol.EventSubmitAnswer, protocol.SubmitAnswerPayload{Answer: answer})
}

// StartNewInterview returns from the feedback view to setup. It is local
// only and reports false outside the feedback phase.
func (c *Client) StartNewInterview() bool {
	if !c.machine.Reset() {
		log.Printf("WARN: [INTERVIEW] Start new interview ignored in phase %s", c.machine.Phase().Kind)
		return false
	}
	return true
}

// Snapshot returns the current connection state and phase.
func (c *Client) Snapshot() Snapshot {
	return Snapshot{
		ClientID: c.id,
		State:    c.manager.State(),
		Phase:    c.machine.Phase(),
	}
}
