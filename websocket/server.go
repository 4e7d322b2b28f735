// Package websocket serves the browser frontend: static assets over HTTP
// plus a /ws endpoint that streams simulation frames out and applies
// control messages coming back.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/push04/FlowForge/experiment"
	flow "github.com/push04/FlowForge/flow-engine"
)

// HttpParams configures the embedded web server.
type HttpParams struct {
	Address string
	Prefix  string
	Root    string
}

// A server application calls the Upgrade method from an HTTP request handler to initiate a connection
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wireFrame is the outbound frame payload.
type wireFrame struct {
	Tick      uint64          `json:"tick"`
	Running   bool            `json:"running"`
	Mode      string          `json:"mode"`
	Readouts  flow.Readouts   `json:"readouts"`
	Particles []flow.Particle `json:"particles"`
}

// controlMsg is the inbound control payload.
type controlMsg struct {
	Action string  `json:"action"`
	Mode   string  `json:"mode,omitempty"`
	Name   string  `json:"name,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Count  int     `json:"count,omitempty"`
	Preset string  `json:"preset,omitempty"`
}

// Server fans simulation frames out to every connected browser and relays
// their control messages onto the simulation's lifecycle interface.
type Server struct {
	sim     *flow.Simulation
	catalog experiment.Catalog

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	frames  uint64
}

// NewServer wires the server into the simulation's frame stream. It must be
// called before the simulation starts running.
func NewServer(sim *flow.Simulation, catalog experiment.Catalog) *Server {
	s := &Server{
		sim:     sim,
		catalog: catalog,
		clients: make(map[*websocket.Conn]chan []byte),
	}
	sim.OnFrame(s.broadcast)
	return s
}

// Serve initializes the webserver and websocket endpoint and blocks.
func (s *Server) Serve(p *HttpParams) error {
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return err
	}
	log.Printf("serving %s as %s on %s", root, p.Prefix, p.Address)

	mux := http.NewServeMux()
	mux.Handle(p.Prefix, http.StripPrefix(p.Prefix, http.FileServer(http.Dir(root))))
	mux.HandleFunc("/ws", s.wsHandler)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Print(r.RemoteAddr + " " + r.Method + " " + r.URL.String())
		mux.ServeHTTP(w, r)
	})
	server := http.Server{
		Addr:    p.Address,
		Handler: handler,
	}
	return server.ListenAndServe()
}

// broadcast runs on the simulation goroutine once per tick, so it encodes
// once and hands the bytes to per-client writers without blocking.
func (s *Server) broadcast(f flow.Frame) {
	s.frames++
	if s.frames%2 != 0 {
		// The wire runs at half the display cadence.
		return
	}
	payload, err := json.Marshal(wireFrame{
		Tick:      f.Tick,
		Running:   f.Running,
		Mode:      f.Params.Mode.String(),
		Readouts:  f.Readouts,
		Particles: f.Particles,
	})
	if err != nil {
		log.Println(err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- payload:
		default:
			// Client can't keep up; dropping a frame beats stalling the loop.
		}
	}
}

// wsHandler defines the websocket connection endpoint.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }

	// Upgrade the http connection to a WebSocket connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.Println(err)
		}
		return
	}

	ch := make(chan []byte, 8)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	go s.writeFrames(conn, ch)
	s.readControls(conn)

	s.mu.Lock()
	delete(s.clients, conn)
	close(ch)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) writeFrames(conn *websocket.Conn, ch chan []byte) {
	for payload := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Println(err)
			return
		}
	}
}

// readControls listens for control messages until the connection drops.
func (s *Server) readControls(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			return
		}
		var ctl controlMsg
		if err := json.Unmarshal(msg, &ctl); err != nil {
			log.Printf("bad control message %s: %v", msg, err)
			continue
		}
		s.apply(ctl)
	}
}

func (s *Server) apply(ctl controlMsg) {
	switch ctl.Action {
	case "pause":
		s.sim.Pause()
	case "resume":
		s.sim.Resume()
	case "reset":
		s.sim.Reset()
	case "resize":
		s.sim.Resize(ctl.Count)
	case "mode":
		mode, err := flow.ParseMode(ctl.Mode)
		if err != nil {
			log.Println(err)
			return
		}
		s.sim.SetMode(mode)
	case "set":
		s.sim.SetParam(ctl.Name, ctl.Value)
	case "preset":
		exp, err := s.catalog.Find(ctl.Preset)
		if err != nil {
			log.Println(err)
			return
		}
		s.sim.SetParams(exp.Preset)
	default:
		log.Printf("unknown control action %q", ctl.Action)
	}
}
