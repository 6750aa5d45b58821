package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matt-g-everett/ledkey/stream"
	"github.com/matt-g-everett/ledkey/timeline"
)

const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type tickMessage struct {
	Type     string  `json:"type"`
	Frame    int     `json:"frame"`
	Position float64 `json:"position"`
}

type keyframesMessage struct {
	Type      string              `json:"type"`
	Keyframes []timeline.Keyframe `json:"keyframes"`
}

// outboxSize bounds the broadcasts waiting for the pump.
const outboxSize = 64

type outgoing struct {
	tick bool
	data []byte
}

// Server serves the web client and mirrors playback to it over websockets.
// Commands sent by clients are passed to the handler. Broadcasts are queued
// and written by a separate goroutine, so a slow client never holds up the
// caller.
type Server struct {
	config  stream.HttpConfig
	handler stream.CommandHandler
	log     *slog.Logger

	outbox    chan outgoing
	quit      chan struct{}
	closeOnce sync.Once

	mu            sync.Mutex
	clients       map[*websocket.Conn]bool
	lastTick      []byte
	lastKeyframes []byte
}

// NewServer creates a Server and starts its broadcast pump. Close stops it.
func NewServer(config stream.HttpConfig, handler stream.CommandHandler, log *slog.Logger) *Server {
	s := new(Server)
	s.config = config
	s.handler = handler
	s.log = log
	s.outbox = make(chan outgoing, outboxSize)
	s.quit = make(chan struct{})
	s.clients = make(map[*websocket.Conn]bool)
	go s.pump()
	return s
}

// Close stops the broadcast pump and disconnects every client.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.closeClients()
	})
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.config.Static)))
	mux.HandleFunc("/ws", s.handleWebsocket)
	return mux
}

// Serve listens until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.Close()
	}()

	s.log.Info("listening", "addr", s.config.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// OnTick queues the rendered frame for every client.
func (s *Server) OnTick(frame int, position float64) {
	data, err := json.Marshal(tickMessage{Type: "tick", Frame: frame, Position: position})
	if err != nil {
		s.log.Error("marshal tick", "error", err)
		return
	}
	s.enqueue(outgoing{tick: true, data: data})
}

// OnKeyframes queues the keyframe list for every client.
func (s *Server) OnKeyframes(keyframes []timeline.Keyframe) {
	data, err := json.Marshal(keyframesMessage{Type: "keyframes", Keyframes: keyframes})
	if err != nil {
		s.log.Error("marshal keyframes", "error", err)
		return
	}
	s.enqueue(outgoing{data: data})
}

func (s *Server) enqueue(msg outgoing) {
	select {
	case s.outbox <- msg:
	default:
		s.log.Warn("broadcast queue full, dropping message", "tick", msg.tick)
	}
}

// pump writes queued messages. The snapshot sent to new clients is updated
// here too, so a client sees each message once, either in its snapshot or
// live.
func (s *Server) pump() {
	for {
		select {
		case <-s.quit:
			return
		case msg := <-s.outbox:
			s.mu.Lock()
			if msg.tick {
				s.lastTick = msg.data
			} else {
				s.lastKeyframes = msg.data
			}
			s.broadcastLocked(msg.data)
			s.mu.Unlock()
		}
	}
}

// broadcastLocked drops clients that fail a write so they are not retried
// on every tick; their read loops then exit.
func (s *Server) broadcastLocked(data []byte) {
	for conn := range s.clients {
		if err := write(conn, data); err != nil {
			s.log.Warn("broadcast write", "remote", conn.RemoteAddr().String(), "error", err)
			delete(s.clients, conn)
			conn.Close()
		}
	}
}

func write(conn *websocket.Conn, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// addClient registers conn and brings it up to date with the last keyframe
// list and tick.
func (s *Server) addClient(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[conn] = true
	for _, data := range [][]byte{s.lastKeyframes, s.lastTick} {
		if data == nil {
			continue
		}
		if err := write(conn, data); err != nil {
			s.log.Warn("snapshot write", "remote", conn.RemoteAddr().String(), "error", err)
		}
	}
	s.log.Info("client added", "remote", conn.RemoteAddr().String(), "total", len(s.clients))
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clients, conn)
	conn.Close()
	s.log.Info("client removed", "remote", conn.RemoteAddr().String(), "total", len(s.clients))
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		conn.Close()
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	s.addClient(conn)
	defer s.removeClient(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, err := stream.DecodeCommand(data)
		if err != nil {
			s.log.Warn("bad command", "remote", conn.RemoteAddr().String(), "error", err)
			continue
		}
		if err := s.handler.Handle(cmd); err != nil {
			s.log.Warn("command failed", "type", cmd.Type, "error", err)
		}
	}
}
