// Package stubserver serves the remote data service contract over HTTP,
// backed by the in-memory implementation. It exists for local development
// and for exercising the HTTP client in tests; it is not the production
// service.
package stubserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote"
	remotememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote/memory"
)

// NewRouter builds the stub's HTTP surface over the given in-memory
// service
func NewRouter(svc *remotememory.Service, logger *slog.Logger) http.Handler {
	h := &handlers{svc: svc, logger: logger.With(slog.String("component", "stubserver"))}

	r := mux.NewRouter()

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth/v1").Subrouter()
	auth.HandleFunc("/signup", h.signUp).Methods(http.MethodPost)
	auth.HandleFunc("/token", h.signIn).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h.signOut).Methods(http.MethodPost)
	auth.HandleFunc("/session", h.sessionFromTokens).Methods(http.MethodPost)

	rest := r.PathPrefix("/rest/v1").Subrouter()
	rest.HandleFunc("/profiles", h.insertProfile).Methods(http.MethodPost)
	rest.HandleFunc("/profiles/{user_id}", h.getProfile).Methods(http.MethodGet)
	rest.HandleFunc("/settings", h.insertSettings).Methods(http.MethodPost)
	rest.HandleFunc("/devices/{id}", h.upsertDevice).Methods(http.MethodPut)
	rest.HandleFunc("/devices", h.listDevices).Methods(http.MethodGet)
	rest.HandleFunc("/devices/{id}", h.removeDevice).Methods(http.MethodDelete)
	rest.HandleFunc("/sessions/{session_id}/matches/{match_id}/score", h.updateScore).Methods(http.MethodPatch)
	rest.HandleFunc("/sessions/{session_id}/rounds/{round}", h.saveRoundData).Methods(http.MethodPut)
	rest.HandleFunc("/sessions/{session_id}/players/{player_id}/status", h.updatePlayerStatus).Methods(http.MethodPatch)
	rest.HandleFunc("/sessions/{session_id}/players/{player_id}/assignment", h.reassignPlayer).Methods(http.MethodPatch)
	rest.HandleFunc("/event_log", h.appendEventLog).Methods(http.MethodPost)

	return r
}

type handlers struct {
	svc    *remotememory.Service
	logger *slog.Logger
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError maps the remote error taxonomy back onto HTTP statuses, the
// inverse of the client's classification
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch remote.KindOf(err) {
	case remote.KindConflict:
		status = http.StatusConflict
	case remote.KindValidation:
		status = http.StatusBadRequest
	case remote.KindNotFound:
		status = http.StatusNotFound
	case remote.KindNetwork:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    string(remote.KindOf(err)),
		Message: err.Error(),
	}})
}

func decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return remote.NewError(remote.KindValidation, "stub.decode", err)
	}
	return nil
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Health(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	session, err := h.svc.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	session, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		// Bad credentials come through as validation; the client maps
		// 401 back to the same kind
		if remote.KindOf(err) == remote.KindValidation {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorBody{
				Code:    string(remote.KindValidation),
				Message: err.Error(),
			}})
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *handlers) signOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if err := h.svc.SignOut(r.Context(), token); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenPairRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *handlers) sessionFromTokens(w http.ResponseWriter, r *http.Request) {
	var req tokenPairRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	session, err := h.svc.SessionFromTokens(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *handlers) insertProfile(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if err := decode(r, &p); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.InsertProfile(r.Context(), p); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(mux.Vars(r)["user_id"])
	p, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) insertSettings(w http.ResponseWriter, r *http.Request) {
	var s model.Settings
	if err := decode(r, &s); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.InsertSettings(r.Context(), s); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *handlers) upsertDevice(w http.ResponseWriter, r *http.Request) {
	var d model.DeviceRecord
	if err := decode(r, &d); err != nil {
		h.writeError(w, err)
		return
	}
	d.ID = model.DeviceID(mux.Vars(r)["id"])
	if err := h.svc.UpsertDevice(r.Context(), d); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) listDevices(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(r.URL.Query().Get("user_id"))
	devices, err := h.svc.ListDevices(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *handlers) removeDevice(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(r.URL.Query().Get("user_id"))
	deviceID := model.DeviceID(mux.Vars(r)["id"])
	if err := h.svc.RemoveDevice(r.Context(), userID, deviceID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) updateScore(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(mux.Vars(r)["session_id"])
	var p model.UpdateScorePayload
	if err := decode(r, &p); err != nil {
		h.writeError(w, err)
		return
	}
	p.MatchID = mux.Vars(r)["match_id"]
	if err := h.svc.UpdateScore(r.Context(), sessionID, p); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roundDataRequest struct {
	RoundData json.RawMessage `json:"round_data"`
}

func (h *handlers) saveRoundData(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(mux.Vars(r)["session_id"])
	round, err := strconv.Atoi(mux.Vars(r)["round"])
	if err != nil {
		h.writeError(w, remote.NewError(remote.KindValidation, "stub.round", err))
		return
	}
	var req roundDataRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.SaveRoundData(r.Context(), sessionID, round, req.RoundData); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) updatePlayerStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(mux.Vars(r)["session_id"])
	var p model.UpdatePlayerStatusPayload
	if err := decode(r, &p); err != nil {
		h.writeError(w, err)
		return
	}
	p.PlayerID = mux.Vars(r)["player_id"]
	if err := h.svc.UpdatePlayerStatus(r.Context(), sessionID, p); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) reassignPlayer(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(mux.Vars(r)["session_id"])
	var p model.ReassignPlayerPayload
	if err := decode(r, &p); err != nil {
		h.writeError(w, err)
		return
	}
	p.PlayerID = mux.Vars(r)["player_id"]
	if err := h.svc.ReassignPlayer(r.Context(), sessionID, p); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) appendEventLog(w http.ResponseWriter, r *http.Request) {
	var entry model.EventLogEntry
	if err := decode(r, &entry); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.AppendEventLog(r.Context(), entry); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
