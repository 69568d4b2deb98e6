package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/internal/rate"
	"github.com/MrEthical07/goConsole/token"
	"github.com/gorilla/mux"
)

// Account is one console user.
type Account struct {
	Username string
	Password string
	IsAdmin  bool
}

// Config configures a Server.
type Config struct {
	Issuer   *token.Issuer
	Accounts []Account
	// Hash defaults to DefaultHashParams.
	Hash HashParams
	// Attempts, when set, refuses token requests with 429 once a username
	// or client IP has too many recent failures.
	Attempts *rate.Limiter
	Logger   *slog.Logger
}

type account struct {
	hash    string
	isAdmin bool
}

// Server is an http.Handler mimicking the management API.
type Server struct {
	issuer   *token.Issuer
	attempts *rate.Limiter
	logger   *slog.Logger
	router   *mux.Router

	mu       sync.RWMutex
	accounts map[string]account

	maintenance atomic.Bool
	tokenHits   atomic.Uint64
}

// New hashes the configured accounts and builds the routes.
func New(cfg Config) (*Server, error) {
	if cfg.Issuer == nil {
		return nil, errors.New("mockapi: issuer is required")
	}
	if cfg.Hash == (HashParams{}) {
		cfg.Hash = DefaultHashParams
	}
	if err := cfg.Hash.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		issuer:   cfg.Issuer,
		attempts: cfg.Attempts,
		logger:   logger,
		accounts: make(map[string]account, len(cfg.Accounts)),
	}
	for _, a := range cfg.Accounts {
		if err := s.addAccount(a, cfg.Hash); err != nil {
			return nil, err
		}
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/token", s.handleToken).Methods(http.MethodPost)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/users/me", s.handleMe).Methods(http.MethodGet)
	s.router = r
	return s, nil
}

func (s *Server) addAccount(a Account, p HashParams) error {
	name := strings.TrimSpace(a.Username)
	if name == "" || a.Password == "" {
		return errors.New("mockapi: account needs a username and a password")
	}
	hash, err := hashPassword(a.Password, p)
	if err != nil {
		return fmt.Errorf("mockapi: hash password for %s: %w", name, err)
	}
	s.mu.Lock()
	s.accounts[name] = account{hash: hash, isAdmin: a.IsAdmin}
	s.mu.Unlock()
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount registers the API routes on r, for hosts that serve other pages too.
func (s *Server) Mount(r *mux.Router) {
	r.PathPrefix("/api/").Handler(s.router)
}

// SetMaintenance makes the health endpoint answer 503.
func (s *Server) SetMaintenance(on bool) {
	s.maintenance.Store(on)
}

// TokenRequests returns how many token requests were served.
func (s *Server) TokenRequests() uint64 {
	return s.tokenHits.Load()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.tokenHits.Add(1)
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	ip := clientIP(r)
	if s.throttled(w, r, username, ip) {
		return
	}

	s.mu.RLock()
	acct, ok := s.accounts[username]
	s.mu.RUnlock()

	valid := false
	if ok {
		var err error
		valid, err = verifyPassword(password, acct.hash)
		if err != nil {
			s.logger.Error("stored hash unreadable", "username", username, "error", err)
		}
	}
	if !valid {
		s.logger.Info("token request rejected", "username", username)
		s.recordFailure(r, username, ip)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	raw, err := s.issuer.Issue(username, acct.isAdmin)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	if s.attempts != nil {
		if err := s.attempts.Reset(r.Context(), username); err != nil {
			s.logger.Warn("reset attempt counter", "username", username, "error", err)
		}
	}
	s.logger.Info("token issued", "username", username, "admin", acct.isAdmin)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: raw, TokenType: "bearer"})
}

// throttled answers 429 and returns true when the attempt budget is spent.
// A Redis outage lets the request through.
func (s *Server) throttled(w http.ResponseWriter, r *http.Request, username, ip string) bool {
	if s.attempts == nil {
		return false
	}
	err := s.attempts.Check(r.Context(), username, ip)
	switch {
	case err == nil:
		return false
	case errors.Is(err, rate.ErrRateLimited):
		if wait, werr := s.attempts.RetryAfter(r.Context(), username); werr == nil && wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
		s.logger.Warn("token request throttled", "username", username, "ip", ip)
		writeDetail(w, http.StatusTooManyRequests, "Too many login attempts")
		return true
	default:
		s.logger.Error("attempt limiter unavailable", "error", err)
		return false
	}
}

func (s *Server) recordFailure(r *http.Request, username, ip string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Fail(r.Context(), username, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		s.logger.Error("record failed attempt", "username", username, "error", err)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.maintenance.Load() {
		writeDetail(w, http.StatusServiceUnavailable, "maintenance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	raw, ok := goConsole.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	claims, err := s.issuer.Verify(raw)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Username: claims.Subject, IsAdmin: claims.IsAdmin})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
