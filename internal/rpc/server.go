// Package rpc serves the ledger over HTTP: REST routes for browsers and
// scripts, and JSON-RPC 2.0 at /rpc for the CLI.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/utxoledger/config"
	"github.com/Klingon-tech/utxoledger/internal/ledger"
	klog "github.com/Klingon-tech/utxoledger/internal/log"
	"github.com/Klingon-tech/utxoledger/internal/metrics"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// DefaultMiner is the coinbase address used when a mine request names none.
const DefaultMiner = "MINER001"

// Server is the ledger HTTP server.
type Server struct {
	addr    string
	ledger  *ledger.Ledger
	metrics *metrics.Metrics // nil = /metrics disabled.

	mux         *http.ServeMux
	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
	allowedNets []*net.IPNet // Empty = allow all.
	corsOrigins []string     // Empty = no CORS headers.

	// ctx is cancelled by Stop so in-flight mining aborts.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new server. A zero-value RPCConfig allows all IPs and
// disables CORS.
func New(addr string, l *ledger.Ledger, rpcCfg config.RPCConfig) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:        addr,
		ledger:      l,
		mux:         http.NewServeMux(),
		logger:      klog.WithComponent("rpc"),
		allowedNets: parseAllowedIPs(rpcCfg.AllowedIPs),
		corsOrigins: rpcCfg.CORSOrigins,
		ctx:         ctx,
		cancel:      cancel,
	}

	s.mux.HandleFunc("GET /blocks", s.handleBlocks)
	s.mux.HandleFunc("POST /transaction", s.handleTransaction)
	s.mux.HandleFunc("POST /mine", s.handleMine)
	s.mux.HandleFunc("GET /balance/{address}", s.handleBalance)
	s.mux.HandleFunc("GET /pending", s.handlePending)
	s.mux.HandleFunc("GET /valid", s.handleValid)
	s.mux.HandleFunc("GET /info", s.handleInfo)
	s.mux.HandleFunc("GET /create_wallet", s.handleCreateWallet)
	s.mux.HandleFunc("POST /create_wallet_from_key", s.handleCreateWalletFromKey)
	s.mux.HandleFunc("POST /tx/create_signed", s.handleCreateSigned)
	s.mux.HandleFunc("POST /rpc", s.handleRPC)

	s.server = &http.Server{
		Handler:     s.middleware(s.mux),
		ReadTimeout: 30 * time.Second,
		// Mining requests block until a block is sealed.
		WriteTimeout: 10 * time.Minute,
	}
	return s
}

// SetMetrics enables GET /metrics and per-route timing. Call before Start.
func (s *Server) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
	s.mux.Handle("GET /metrics", m.Handler())
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		_, ipNet, err := net.ParseCIDR(entry)
		if err == nil {
			nets = append(nets, ipNet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("RPC server started")
	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop aborts in-flight mining and gracefully shuts down the server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.logger.Info().Msg("RPC server stopped")
	return err
}

// requestContext is cancelled when either the client goes away or the
// server stops.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// middleware applies IP filtering, CORS and request timing.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.allowedNets) > 0 {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			ip := net.ParseIP(host)
			if ip == nil || !s.isIPAllowed(ip) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		s.setCORSHeaders(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		next.ServeHTTP(w, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			metrics.ObserveDuration(s.metrics.RPCDuration.WithLabelValues(route), start)
		}
		s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}

// isIPAllowed checks if the IP is in the allowed networks list.
func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// setCORSHeaders adds CORS headers based on the configured origins.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := false
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			allowed = true
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			allowed = true
			break
		}
	}
	if allowed {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}

// readBody reads at most maxBodySize bytes of the request body.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body")
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("request body too large")
	}
	return body, nil
}

// decodeBody unmarshals a JSON body into target. An empty body leaves
// target untouched.
func decodeBody(r *http.Request, target interface{}) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("invalid JSON: %v", err)
	}
	return nil
}

// writeREST writes v as a JSON body with the given status.
func writeREST(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}
