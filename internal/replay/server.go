package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultAddr is the replay server's default listen address.
const DefaultAddr = "0.0.0.0:7000"

// maxTokenLen bounds the mode token a client may send.
const maxTokenLen = 64

// Server answers replay requests one connection at a time.
type Server struct {
	addr        string
	source      Source
	logger      *log.Logger
	readTimeout time.Duration

	mu    sync.Mutex
	ln    net.Listener
	ready chan struct{}

	// Accept goroutine only. One slot per mode, so serving one mode never
	// evicts the frame another mode is repeating.
	cache map[Mode]cachedFrame
}

// cachedFrame is the encoded form of one published record.
type cachedFrame struct {
	rec   *Record
	frame []byte
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server logger.
func WithServerLogger(l *log.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReadTimeout bounds how long the server waits for a mode token.
// A client that sends nothing within it is served the last completed episode.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// NewServer creates a server for src listening on addr ("" = DefaultAddr).
func NewServer(addr string, src Source, opts ...ServerOption) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		addr:        addr,
		source:      src,
		readTimeout: time.Second,
		ready:       make(chan struct{}),
		cache:       make(map[Mode]cachedFrame),
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "replay-server",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds the listen address and serves until ctx is done.
// A bind failure or a broken listener is returned; per-connection errors
// are logged and never stop the loop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("replay: cannot listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. ln is closed on return.
// A Server serves a single listener over its lifetime.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	close(s.ready)
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer ln.Close()

	s.logger.Info("replay server listening", "address", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("replay server stopped")
				return nil
			}
			return fmt.Errorf("replay: accept failed: %w", err)
		}
		s.handle(conn)
	}
}

// RunInBackground starts ListenAndServe on its own goroutine. A listener
// failure is logged and ends replay serving; the caller keeps running.
func (s *Server) RunInBackground(ctx context.Context) {
	go func() {
		if err := s.ListenAndServe(ctx); err != nil {
			s.logger.Error("replay server failed", "error", err)
		}
	}()
}

// Ready is closed once the server has a listener.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or nil before the server is ready.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	token, err := readToken(conn, s.readTimeout)
	if err != nil {
		s.logger.Debug("no mode token, serving last completed", "remote", remote, "error", err)
	}
	mode := ParseMode(token)

	frame, err := s.frameFor(mode)
	if err != nil {
		s.logger.Warn("cannot build replay frame", "remote", remote, "mode", mode, "error", err)
		return
	}

	if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		s.logger.Warn("replay connection failed", "remote", remote, "error", err)
		return
	}
	if _, err := conn.Write(frame); err != nil {
		s.logger.Warn("replay connection failed", "remote", remote, "error", err)
		return
	}
	s.logger.Debug("replay served", "remote", remote, "mode", mode, "bytes", len(frame))
}

// readToken reads one line, or whatever arrives before EOF or the deadline.
func readToken(conn net.Conn, timeout time.Duration) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(io.LimitReader(conn, maxTokenLen)).ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return strings.TrimSpace(line), err
}

func (s *Server) frameFor(mode Mode) ([]byte, error) {
	switch mode {
	case ModeCurrent:
		return s.recordFrame(ModeCurrent, s.source.Current())
	case ModeHighScores:
		recs, err := s.source.HighScores()
		if err != nil {
			s.logger.Warn("cannot load high-score episodes", "error", err)
			return EncodeRecords(nil)
		}
		return EncodeRecords(nonNil(recs))
	default:
		return s.recordFrame(ModeLastCompleted, s.source.Last())
	}
}

// recordFrame encodes rec, reusing the frame last served for mode when rec
// is the same published record so repeated requests get identical bytes.
func (s *Server) recordFrame(mode Mode, rec *Record) ([]byte, error) {
	if c, ok := s.cache[mode]; ok && rec != nil && rec == c.rec {
		return c.frame, nil
	}
	frame, err := EncodeRecord(rec)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		s.cache[mode] = cachedFrame{rec: rec, frame: frame}
	}
	return frame, nil
}

func nonNil(recs []*Record) []*Record {
	out := recs[:0:0]
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
