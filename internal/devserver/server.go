package devserver

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/config"
	"github.com/AtDexters-Lab/nexus-interview/internal/protocol"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = 5 * time.Second

// Server is a scripted interview server speaking the client's protocol on
// /ws/{clientID}. It stands in for the real interviewer during development.
type Server struct {
	config     *config.ServerConfig
	tlsConfig  *tls.Config
	httpServer *http.Server
	upgrader   websocket.Upgrader

	clients    sync.Map // clientID -> *clientConn
	interviews sync.Map // clientID -> *Interviewer

	mu      sync.Mutex
	stopped bool
}

// New creates a Server. A nil tlsConfig serves plain ws.
func New(cfg *config.ServerConfig, tlsConfig *tls.Config) *Server {
	return &Server{
		config:    cfg,
		tlsConfig: tlsConfig,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/ws/{clientID}", s.handleWebSocket).Methods(http.MethodGet)
	return r
}

// Run listens on the configured address until Stop is called.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = &http.Server{
		Addr:      s.config.ListenAddress,
		Handler:   s.Handler(),
		TLSConfig: s.tlsConfig,
	}
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if s.tlsConfig != nil {
		log.Printf("INFO: Interview server (wss) listening on %s", s.config.ListenAddress)
		err = srv.ListenAndServeTLS("", "")
	} else {
		log.Printf("INFO: Interview server (ws) listening on %s", s.config.ListenAddress)
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server and closes every client connection.
func (s *Server) Stop() {
	log.Println("INFO: Shutting down interview server...")
	s.mu.Lock()
	s.stopped = true
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("ERROR: Interview server shutdown failed: %v", err)
		}
	}

	s.clients.Range(func(key, value interface{}) bool {
		if c, ok := value.(*clientConn); ok {
			c.CloseWith(websocket.CloseGoingAway, "server shutting down")
		}
		return true
	})
}

// DropClient closes a client's connection without a close handshake, as a
// network failure would.
func (s *Server) DropClient(clientID string) bool {
	raw, ok := s.clients.Load(clientID)
	if !ok {
		return false
	}
	raw.(*clientConn).Close()
	return true
}

// ConnectedClients returns the number of live client connections.
func (s *Server) ConnectedClients() int {
	n := 0
	s.clients.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "API is running"})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["clientID"]
	if clientID == "" {
		http.Error(w, "missing client id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR: Failed to upgrade connection for client %s: %v", clientID, err)
		return
	}

	c := newClientConn(clientID, conn, s)
	if prev, loaded := s.clients.Swap(clientID, c); loaded {
		log.Printf("INFO: Client %s reconnected; replacing its previous connection.", clientID)
		prev.(*clientConn).CloseWith(websocket.ClosePolicyViolation, "replaced by a new connection")
	}
	log.Printf("INFO: Client %s connected from %s", clientID, r.RemoteAddr)

	c.StartPumps()

	// Only the current connection owns the client's interview.
	if cur, ok := s.clients.Load(clientID); ok && cur == c {
		s.interviews.Delete(clientID)
		s.clients.CompareAndDelete(clientID, c)
	}
	log.Printf("INFO: Client %s disconnected", clientID)
}

func (s *Server) handleEnvelope(c *clientConn, env protocol.Envelope) {
	switch env.Event {
	case protocol.EventStartInterview:
		var req protocol.StartInterviewPayload
		if err := protocol.DecodePayload(env, &req); err != nil {
			log.Printf("WARN: Bad start_interview from client %s: %v", c.id, err)
			c.Send(protocol.EventError, protocol.ErrorPayload{Message: "Invalid start_interview request"})
			return
		}
		iv := NewInterviewer(req.JobDescription, req.Resume, s.config.Questions, s.config.MaxQuestions)
		s.interviews.Store(c.id, iv)
		question, number := iv.Start()
		log.Printf("INFO: Interview %s started for client %s", iv.ID(), c.id)
		c.Send(protocol.EventInterviewStarted, protocol.QuestionPayload{
			Message:        "Interview started successfully",
			Question:       question,
			QuestionNumber: number,
		})

	case protocol.EventSubmitAnswer:
		var req protocol.SubmitAnswerPayload
		if err := protocol.DecodePayload(env, &req); err != nil {
			log.Printf("WARN: Bad submit_answer from client %s: %v", c.id, err)
			c.Send(protocol.EventError, protocol.ErrorPayload{Message: "Invalid submit_answer request"})
			return
		}
		raw, ok := s.interviews.Load(c.id)
		if !ok {
			c.Send(protocol.EventError, protocol.ErrorPayload{Message: "Invalid session or session expired"})
			return
		}
		iv := raw.(*Interviewer)
		question, number, done := iv.Answer(req.Answer)
		if done {
			s.interviews.Delete(c.id)
			log.Printf("INFO: Interview %s completed for client %s", iv.ID(), c.id)
			c.Send(protocol.EventInterviewComplete, protocol.CompletePayload{
				Message:  "Interview completed",
				Feedback: iv.Feedback(),
			})
			return
		}
		c.Send(protocol.EventNextQuestion, protocol.QuestionPayload{Question: question, QuestionNumber: number})

	default:
		log.Printf("WARN: Unknown event '%s' from client %s", env.Event, c.id)
	}
}
