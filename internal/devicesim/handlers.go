package devicesim

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/smartkraft/lebensspur/internal/common"
	"github.com/smartkraft/lebensspur/internal/logging"
)

type handler struct {
	dev *Device
	log logging.Logger
}

// NewRouter serves the device API for dev.
func NewRouter(dev *Device, log logging.Logger) *mux.Router {
	if log == nil {
		log = logging.Discard()
	}
	h := &handler{dev: dev, log: log}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.HandleFunc("/api/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", h.logout).Methods(http.MethodPost)

	timer := r.PathPrefix("/api/timer").Subrouter()
	timer.Use(h.requireSession)
	timer.HandleFunc("/status", h.status).Methods(http.MethodGet)
	timer.HandleFunc("/vacation", h.vacation).Methods(http.MethodPost)
	timer.HandleFunc("/{action:reset|enable|disable|acknowledge}", h.action).Methods(http.MethodPost)
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// sessionToken reads the bearer header, falling back to the session cookie.
func sessionToken(r *http.Request) (string, error) {
	if h := r.Header.Get(common.AuthorizationHeader); strings.HasPrefix(h, common.BearerPrefix) {
		return strings.TrimPrefix(h, common.BearerPrefix), nil
	}
	if c, err := r.Cookie(common.SessionCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", common.ErrInvalidToken
}

func (h *handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := sessionToken(r)
		if err != nil || !h.dev.validSession(token) {
			writeJSON(w, http.StatusUnauthorized, models.ActionResponse{Error: "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.LoginResponse{Error: "Bad request"})
		return
	}

	res, err := h.dev.login(req.Password)
	switch {
	case err == nil:
		http.SetCookie(w, &http.Cookie{
			Name:     common.SessionCookieName,
			Value:    res.token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		writeJSON(w, http.StatusOK, models.LoginResponse{Success: true, Token: res.token})

	case errors.Is(err, common.ErrLockedOut):
		h.log.Warn(r.Context(), "login locked out", "seconds", res.lockoutSeconds)
		writeJSON(w, http.StatusTooManyRequests, models.LoginResponse{
			Error:          "Too many failed attempts",
			LockoutSeconds: res.lockoutSeconds,
		})

	case errors.Is(err, common.ErrWrongPassword):
		remaining := res.remaining
		writeJSON(w, http.StatusUnauthorized, models.LoginResponse{
			Error:             "Invalid password",
			RemainingAttempts: &remaining,
		})

	default:
		h.log.Error(r.Context(), "login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.LoginResponse{Error: "Internal error"})
	}
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if token, err := sessionToken(r); err == nil {
		h.dev.endSession(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:    common.SessionCookieName,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, models.ActionResponse{Success: true})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dev.status())
}

func (h *handler) action(w http.ResponseWriter, r *http.Request) {
	var err error
	switch mux.Vars(r)["action"] {
	case "reset":
		err = h.dev.Reset()
	case "enable":
		err = h.dev.Enable()
	case "disable":
		err = h.dev.Disable()
	case "acknowledge":
		err = h.dev.Acknowledge()
	}
	h.reply(w, r, err)
}

func (h *handler) vacation(w http.ResponseWriter, r *http.Request) {
	var req models.VacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ActionResponse{Error: "Bad request"})
		return
	}
	h.reply(w, r, h.dev.SetVacation(req.Enabled, req.Days))
}

func (h *handler) reply(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.log.Info(r.Context(), "action refused", "path", r.URL.Path, "reason", err.Error())
		writeJSON(w, http.StatusOK, models.ActionResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models.ActionResponse{Success: true})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		h.log.Debug(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "status", rec.code, "duration", time.Since(start))
	})
}
