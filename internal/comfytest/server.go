// Package comfytest provides an in-process fake of the server's http and
// websocket surface for tests.
package comfytest

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Request is a recorded POST.
type Request struct {
	Path string
	Body string
}

// Server answers GET routes from canned JSON bodies and records every POST.
// Websocket clients receive Frames in order, after which the server closes
// the connection normally unless HoldOpen is set.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]string
	status   map[string]int
	images   map[string][]byte
	posts    []Request
	onPost   func(path, body string)
	frames   []string
	holdOpen bool
	clientID []string

	upgrader websocket.Upgrader
}

func New(t testing.TB) *Server {
	s := &Server{
		routes: map[string]string{
			"/history":      `{}`,
			"/queue":        `{"queue_running": [], "queue_pending": []}`,
			"/system_stats": `{"system": {}, "devices": []}`,
		},
		status: map[string]int{},
		images: map[string][]byte{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/api/view", s.serveView)
	mux.HandleFunc("/", s.serve)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Host returns the hostname the server listens on.
func (s *Server) Host() string {
	u, _ := url.Parse(s.URL)
	host, _, _ := net.SplitHostPort(u.Host)
	return host
}

func (s *Server) Port() int {
	u, _ := url.Parse(s.URL)
	_, port, _ := net.SplitHostPort(u.Host)
	p, _ := strconv.Atoi(port)
	return p
}

// Set makes GET path answer with body.
func (s *Server) Set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = body
}

// Fail makes any request to path answer with code and body.
func (s *Server) Fail(path string, code int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = code
	s.routes[path] = body
}

func (s *Server) SetImage(filename string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[filename] = data
}

// OnPost registers a hook run for every POST after it is recorded.
func (s *Server) OnPost(fn func(path, body string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPost = fn
}

// Frames sets the text frames sent to each websocket client.
func (s *Server) Frames(frames ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = frames
}

// HoldOpen keeps websocket connections open after the frames are sent.
func (s *Server) HoldOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdOpen = true
}

func (s *Server) Posts() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.posts...)
}

// ClientIDs returns the clientId query values of websocket connections.
func (s *Server) ClientIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clientID...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body, known := s.routes[r.URL.Path]
	code, failing := s.status[r.URL.Path]
	s.mu.Unlock()

	if failing {
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !known {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	case http.MethodPost:
		data, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.posts = append(s.posts, Request{Path: r.URL.Path, Body: string(data)})
		hook := s.onPost
		reply := ""
		if r.URL.Path == "/prompt" {
			reply = s.routes["/prompt"]
		}
		s.mu.Unlock()
		if hook != nil {
			hook(r.URL.Path, string(data))
		}
		_, _ = io.WriteString(w, reply)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) serveView(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, ok := s.images[r.URL.Query().Get("filename")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.clientID = append(s.clientID, r.URL.Query().Get("clientId"))
	frames := append([]string(nil), s.frames...)
	hold := s.holdOpen
	s.mu.Unlock()

	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			return
		}
	}

	if hold {
		// drain until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	// wait for the client's close reply
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
