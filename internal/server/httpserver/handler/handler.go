package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/server/fixture"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// MaxBodyBytes bounds a request body.
const MaxBodyBytes = 1 << 20

// MaintenanceRetryAfter is advertised while the fixture is in maintenance.
const MaintenanceRetryAfter = 30 * time.Second

// Config holds the handler's collaborators.
type Config struct {
	Store   *fixture.Store
	Tokens  *Tokens
	Metrics *metric.ServerMetrics
	Logger  *slog.Logger

	// AlwaysOK answers every request with HTTP 200 and reports failures
	// only in the envelope, the way hosted script runtimes do.
	AlwaysOK bool
}

// Handler serves the script endpoint.
type Handler struct {
	store    *fixture.Store
	tokens   *Tokens
	metrics  *metric.ServerMetrics
	logger   *slog.Logger
	alwaysOK bool
	actions  map[string]action
}

// New creates a Handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		store:    cfg.Store,
		tokens:   cfg.Tokens,
		metrics:  cfg.Metrics,
		logger:   logger,
		alwaysOK: cfg.AlwaysOK,
	}
	h.registerActions()
	return h
}

// call is one decoded request.
type call struct {
	req      scriptapi.Request
	token    string
	username string
}

// Exec handles POST /exec.
func (h *Handler) Exec(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get(scriptapi.HeaderRequestID)

	var req scriptapi.Request
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.finish(w, "", start, scriptapi.NewErrorResponse(requestID, scriptapi.CodeInvalidArgument, "malformed request body"))
		return
	}
	if req.RequestID != "" {
		requestID = req.RequestID
	}

	resp := h.dispatch(w, r, req, requestID)
	h.finish(w, req.Action, start, resp)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, req scriptapi.Request, requestID string) *scriptapi.Response {
	if h.store.Maintenance() {
		w.Header().Set(scriptapi.HeaderRetryAfter, strconv.Itoa(int(MaintenanceRetryAfter.Seconds())))
		return scriptapi.NewErrorResponse(requestID, scriptapi.CodeServiceUnavailable, "service under maintenance")
	}

	act, ok := h.actions[req.Action]
	if !ok {
		return scriptapi.NewErrorResponse(requestID, scriptapi.CodeNotFound, "unknown action: "+req.Action)
	}

	c := call{req: req, token: bearerToken(r, req)}
	if act.auth {
		if c.token == "" {
			return scriptapi.NewErrorResponse(requestID, scriptapi.CodeTokenMissing, "sign in first")
		}
		user, ok := h.tokens.Lookup(c.token)
		if ok {
			if _, known := h.store.Profile(user); !known {
				h.tokens.RevokeUser(user)
				ok = false
			}
		}
		if !ok {
			return scriptapi.NewErrorResponse(requestID, scriptapi.CodeTokenInvalid, "session expired or invalid")
		}
		c.username = user
	}

	data, err := act.fn(r, c)
	if err != nil {
		return h.errorResponse(requestID, req.Action, err)
	}
	resp, err := scriptapi.NewResponse(requestID, data)
	if err != nil {
		return h.errorResponse(requestID, req.Action, err)
	}
	return resp
}

// bearerToken prefers the body token and falls back to the Authorization
// header.
func bearerToken(r *http.Request, req scriptapi.Request) string {
	if req.Token != "" {
		return req.Token
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func (h *Handler) errorResponse(requestID, act string, err error) *scriptapi.Response {
	code := errorCode(err)
	msg := err.Error()
	if code == scriptapi.CodeInternal {
		h.logger.Error("action failed", "action", act, "request_id", requestID, "error", err)
		msg = "internal server error"
	}
	return scriptapi.NewErrorResponse(requestID, code, msg)
}

// errorCode maps handler errors to wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return scriptapi.CodeInvalidCredentials
	case errors.Is(err, domain.ErrInvalidArgument):
		return scriptapi.CodeInvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		return scriptapi.CodeNotFound
	default:
		return scriptapi.CodeInternal
	}
}

// codeStatus maps a wire code to its HTTP status.
func codeStatus(code string) int {
	switch code {
	case scriptapi.CodeOK:
		return http.StatusOK
	case scriptapi.CodeTokenMissing, scriptapi.CodeInvalidCredentials, scriptapi.CodeTokenInvalid:
		return http.StatusUnauthorized
	case scriptapi.CodeRateLimited:
		return http.StatusTooManyRequests
	case scriptapi.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case scriptapi.CodeNotFound:
		return http.StatusNotFound
	case scriptapi.CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AlwaysOK reports whether error envelopes are sent with HTTP 200.
func (h *Handler) AlwaysOK() bool {
	return h.alwaysOK
}

func (h *Handler) finish(w http.ResponseWriter, act string, start time.Time, resp *scriptapi.Response) {
	status := codeStatus(resp.Code)
	if h.alwaysOK {
		status = http.StatusOK
	}
	WriteEnvelope(w, status, resp)
	h.metrics.ObserveRequest(act, resp.Code, time.Since(start))
}

// WriteEnvelope writes resp with status. Error envelopes also carry the
// code in the X-Error-Code header.
func WriteEnvelope(w http.ResponseWriter, status int, resp *scriptapi.Response) {
	w.Header().Set("Content-Type", "application/json")
	if resp.RequestID != "" {
		w.Header().Set(scriptapi.HeaderRequestID, resp.RequestID)
	}
	if resp.Code != scriptapi.CodeOK {
		w.Header().Set(scriptapi.HeaderErrorCode, resp.Code)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
