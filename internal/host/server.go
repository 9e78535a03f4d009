package host

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	pshost "github.com/shirou/gopsutil/v3/host"
)

// licensePayload is the license-initialized body.
type licensePayload struct {
	Authorized   bool   `json:"authorized"`
	SerialNumber string `json:"serialNumber"`
	EmailAddress string `json:"emailAddress"`
}

// Server exposes the host's event stream and command endpoints.
type Server struct {
	broadcaster *Broadcaster
	countdown   *Countdown
	stationPath string
	hwid        string
	log         zerolog.Logger

	mu      sync.RWMutex
	station *config.Station
}

// NewServer creates a server for station. stationPath, when set, is where
// authorized licenses are persisted.
func NewServer(station *config.Station, stationPath string, broadcaster *Broadcaster, countdown *Countdown, log zerolog.Logger) *Server {
	return &Server{
		broadcaster: broadcaster,
		countdown:   countdown,
		stationPath: stationPath,
		hwid:        machineID(),
		station:     station,
		log:         log.With().Str("component", "server").Logger(),
	}
}

func machineID() string {
	id, err := pshost.HostID()
	if err != nil || id == "" {
		return "unknown-hwid"
	}
	return id
}

// Station returns the active station configuration.
func (s *Server) Station() *config.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.station
}

// SetStation swaps in a reloaded station and re-announces its license.
func (s *Server) SetStation(st *config.Station) {
	s.mu.Lock()
	s.station = st
	s.mu.Unlock()
	s.countdown.SetRate(st.Countdown.SecondsPerCredit)
	s.broadcaster.Emit(client.EventLicenseInitialized, licenseOf(st))
}

func licenseOf(st *config.Station) licensePayload {
	return licensePayload{
		Authorized:   st.License.Authorized,
		SerialNumber: st.License.SerialNumber,
		EmailAddress: st.License.EmailAddress,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.authorize)

	r.Get("/ws", s.handleWS)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/addtime", s.handleAddTime)
		r.Post("/authorize", s.handleAuthorize)
		r.Post("/validate_password", s.handleValidatePassword)
		r.Get("/ui_config", s.handleUIConfig)
		r.Post("/settings", s.handleSettings)
	})
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade error")
		return
	}

	s.log.Info().Str("remote", r.RemoteAddr).Msg("kiosk client connected")
	c := s.broadcaster.AddClient(conn, message(client.EventLicenseInitialized, licenseOf(s.Station())))

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			s.log.Info().Str("remote", r.RemoteAddr).Msg("kiosk client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req client.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st := s.Station()
	if req.PairID != st.Server.PairID {
		s.log.Warn().Str("pair_id", req.PairID).Msg("registration rejected")
		writeJSON(w, client.RegisterResponse{Text: "Invalid pair_id"})
		return
	}

	resp := client.RegisterResponse{
		Status:        true,
		ServerHWID:    s.hwid,
		ServerAddress: net.JoinHostPort(st.Server.Host, strconv.Itoa(st.Server.Port)),
		Text:          "Registration successful",
	}
	s.log.Info().Str("address", req.Address).Str("hwid", req.HWID).Msg("controller registered")
	s.broadcaster.Emit(client.EventRegistrationAcknowledged, resp)
	writeJSON(w, resp)
}

func (s *Server) handleAddTime(w http.ResponseWriter, r *http.Request) {
	var req client.AddTimeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Credits <= 0 {
		http.Error(w, "credits must be positive", http.StatusBadRequest)
		return
	}
	s.countdown.AddCredits(req.Credits)
	writeJSON(w, client.AddTimeResponse{Status: true, Text: "Time added successfully"})
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req client.AuthorizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	ok := s.station.Accepts(req.SerialNumber, req.EmailAddress)
	var persist *config.Station
	if ok {
		next := *s.station
		next.License = config.LicenseRecord{
			Authorized:   true,
			SerialNumber: req.SerialNumber,
			EmailAddress: req.EmailAddress,
		}
		s.station = &next
		persist = &next
	}
	s.mu.Unlock()

	if persist != nil && s.stationPath != "" {
		if err := config.SaveStation(s.stationPath, persist); err != nil {
			s.log.Error().Err(err).Msg("persist license")
		}
	}
	s.log.Info().Str("serial", req.SerialNumber).Bool("authorized", ok).Msg("authorize")
	writeJSON(w, client.AuthorizeResponse{Authorized: ok})
}

func (s *Server) handleValidatePassword(w http.ResponseWriter, r *http.Request) {
	var req client.PasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	want := s.Station().Server.Password
	writeJSON(w, client.PasswordResponse{Valid: want != "" && req.Password == want})
}

func (s *Server) handleUIConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Station().UI)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req client.SettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.broadcaster.Emit(client.EventNavigateToSettings, req.Open)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.Station().Server.Token
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == token {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Query().Get("token") == token {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// checkOrigin accepts non-browser clients and loopback origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1", "http://[::1]"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves handler on the station's address.
func ListenAndServe(srv *http.Server, log zerolog.Logger) error {
	log.Info().Str("addr", srv.Addr).Msg("host listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
