// Package devserver is an in-memory stand-in for the tender platform's REST
// backend. It exists so the client can be developed and tested end to end
// without the real service.
package devserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/go-tender-client/internal/config"
	"github.com/jrsteele09/go-tender-client/simulate"
	"github.com/jrsteele09/go-tender-client/token"
	"github.com/rs/zerolog"
)

type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	logger    zerolog.Logger
	nowFunc   func() time.Time
	users     UserRepo
	refresh   *RefreshManager
	signer    token.Signer
	revoked   token.RevokedTokenCache
	sms       *smsCodes
	smsSender SMSSender
	simulator *simulate.Simulator
	data      *dataset
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithNowFunc sets the clock used for token issue, expiry checks and the
// seeded dates.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithUserRepo(repo UserRepo) Option {
	return func(s *Server) {
		s.users = repo
	}
}

func WithSMSSender(sender SMSSender) Option {
	return func(s *Server) {
		s.smsSender = sender
	}
}

func WithSimulator(sim *simulate.Simulator) Option {
	return func(s *Server) {
		s.simulator = sim
	}
}

// New builds the server, seeds the demo account and sample data, and
// registers every route.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		logger:  zerolog.Nop(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.users == nil {
		s.users = NewMemoryUserRepo()
	}
	if s.smsSender == nil {
		s.smsSender = s.logSMS
	}
	if s.simulator == nil {
		s.simulator = simulate.New(
			simulate.WithRecommendationSpread(cfg.GetRecommendationSpread()),
			simulate.WithLogger(s.logger),
		)
	}
	s.signer = token.NewHMACSigner(cfg.GetSigningSecret(), s.nowFunc)
	s.revoked = token.NewInMemoryRevokedTokenCache(s.nowFunc)
	s.refresh = NewRefreshManager(newMemoryRefreshRepo(), cfg, s.nowFunc)
	s.sms = newSMSCodes(s.nowFunc)
	s.data = seedData(s.nowFunc())

	if err := s.seedUser(); err != nil {
		return nil, fmt.Errorf("[devserver New] failed to seed user: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

// Sweep drops revoked access tokens that have expired anyway.
func (s *Server) Sweep() int {
	return s.revoked.Cleanup()
}

func (s *Server) seedUser() error {
	username := s.config.GetSeedUsername()
	if _, err := s.users.GetByUsername(username); err == nil {
		return nil
	}
	hash, err := HashPassword(s.config.GetSeedPassword())
	if err != nil {
		return err
	}
	return s.users.Upsert(&User{
		Username:     username,
		PasswordHash: hash,
		Phone:        "13800000000",
		Company:      "Demo Construction Co.",
		Membership:   MembershipVIP,
		DateJoined:   s.nowFunc(),
	})
}

var methodStyles = map[string]lipgloss.Style{
	"GET":     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	"POST":    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	"OPTIONS": lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
}

var defaultMethodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	style, ok := methodStyles[method]
	if !ok {
		style = defaultMethodStyle
	}
	s.logger.Info().Msgf("[%s] %s", style.Render(fmt.Sprintf("%-7s", method)), strings.TrimSuffix(path, "{$}"))
}
