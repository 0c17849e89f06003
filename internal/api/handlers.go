// Package api exposes HTTP handlers for the gym service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"example.com/gym/internal/auth"
	"example.com/gym/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/members", h.members)
	mux.HandleFunc("/v1/members/", h.memberByID)
	mux.HandleFunc("/v1/sessions", h.sessions)
	mux.HandleFunc("/v1/sessions/", h.sessionByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createMember(w, r)
	case http.MethodGet:
		h.membersInAgeRange(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// memberByID serves /v1/members/{id} and /v1/members/{id}/age.
func (h *Handler) memberByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/members/")
	raw, sub, _ := strings.Cut(rest, "/")
	id, ok := parseID(w, raw, "member")
	if !ok {
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.getMember(w, r, id)
	case sub == "age" && r.Method == http.MethodPut:
		h.updateMemberAge(w, r, id)
	case sub == "" || sub == "age":
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.createSession(w, r)
}

func (h *Handler) sessionByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, strings.TrimPrefix(r.URL.Path, "/v1/sessions/"), "session")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getSession(w, r, id)
	case http.MethodDelete:
		h.deleteSession(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, auth.ScopeGymWrite) {
		return
	}

	var req CreateMemberRequest
	if !decode(w, r, &req) {
		return
	}

	member := domain.Member{ID: req.ID, Name: req.Name, Age: *req.Age}
	if err := h.service.AddMember(r.Context(), member); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberView(member))
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request, id int64) {
	if !authorize(w, r, auth.ScopeGymRead) {
		return
	}

	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberView(*member))
}

func (h *Handler) updateMemberAge(w http.ResponseWriter, r *http.Request, id int64) {
	if !authorize(w, r, auth.ScopeGymWrite) {
		return
	}

	var req UpdateAgeRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.service.UpdateMemberAge(r.Context(), id, *req.Age); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateAgeResponse{ID: id, Age: *req.Age})
}

func (h *Handler) membersInAgeRange(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, auth.ScopeGymRead) {
		return
	}

	minAge, err := strconv.Atoi(r.URL.Query().Get("min_age"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "min_age must be an integer")
		return
	}
	maxAge, err := strconv.Atoi(r.URL.Query().Get("max_age"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "max_age must be an integer")
		return
	}

	members, err := h.service.MembersInAgeRange(r.Context(), domain.AgeRange{Min: minAge, Max: maxAge})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]MemberView, 0, len(members))
	for _, m := range members {
		items = append(items, toMemberView(m))
	}
	writeJSON(w, http.StatusOK, ListMembersResponse{Items: items})
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, auth.ScopeGymWrite) {
		return
	}

	var req CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}

	date, err := domain.ParseSessionDate(req.SessionDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	session := domain.WorkoutSession{
		SessionID:   req.SessionID,
		MemberID:    req.MemberID,
		SessionDate: date,
		SessionTime: req.SessionTime,
		Activity:    req.Activity,
	}
	if err := h.service.AddWorkoutSession(r.Context(), session); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionView(session))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request, id int64) {
	if !authorize(w, r, auth.ScopeGymRead) {
		return
	}

	session, err := h.service.GetWorkoutSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(*session))
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request, id int64) {
	if !authorize(w, r, auth.ScopeGymWrite) {
		return
	}

	if err := h.service.DeleteWorkoutSession(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorize accepts gym:write wherever gym:read is required.
func authorize(w http.ResponseWriter, r *http.Request, scope string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if claims.HasScope(scope) || (scope == auth.ScopeGymRead && claims.HasScope(auth.ScopeGymWrite)) {
		return true
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
	return false
}

func parseID(w http.ResponseWriter, raw, kind string) (int64, bool) {
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing "+kind+" id")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid "+kind+" id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

// CreateMemberRequest is the payload for POST /v1/members.
type CreateMemberRequest struct {
	ID   int64  `json:"id" validate:"gt=0"`
	Name string `json:"name" validate:"required"`
	Age  *int   `json:"age" validate:"required,gte=0"`
}

// UpdateAgeRequest is the payload for PUT /v1/members/{id}/age.
type UpdateAgeRequest struct {
	Age *int `json:"age" validate:"required,gte=0"`
}

// UpdateAgeResponse echoes the applied age.
type UpdateAgeResponse struct {
	ID  int64 `json:"id"`
	Age int   `json:"age"`
}

// CreateSessionRequest is the payload for POST /v1/sessions.
type CreateSessionRequest struct {
	SessionID   int64  `json:"session_id" validate:"gt=0"`
	MemberID    int64  `json:"member_id" validate:"gt=0"`
	SessionDate string `json:"session_date" validate:"required"`
	SessionTime string `json:"session_time" validate:"required"`
	Activity    string `json:"activity" validate:"required"`
}

// MemberView is the JSON shape of a member.
type MemberView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// ListMembersResponse packages age range results.
type ListMembersResponse struct {
	Items []MemberView `json:"items"`
}

// SessionView is the JSON shape of a workout session.
type SessionView struct {
	SessionID   int64  `json:"session_id"`
	MemberID    int64  `json:"member_id"`
	SessionDate string `json:"session_date"`
	SessionTime string `json:"session_time"`
	Activity    string `json:"activity"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toMemberView(m domain.Member) MemberView {
	return MemberView{ID: m.ID, Name: m.Name, Age: m.Age}
}

func toSessionView(s domain.WorkoutSession) SessionView {
	return SessionView{
		SessionID:   s.SessionID,
		MemberID:    s.MemberID,
		SessionDate: s.SessionDate.Format(domain.DateLayout),
		SessionTime: s.SessionTime,
		Activity:    s.Activity,
	}
}
