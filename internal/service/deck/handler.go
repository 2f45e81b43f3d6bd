package deck

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	svcErr "github.com/matchdeck/matchdeck/internal/errors"
)

// Response statuses for deck fetches. "empty" tells the client to show its
// empty state and try again later; it is not an error.
const (
	statusSuccess = "success"
	statusEmpty   = "empty"
	statusError   = "error"
)

const maxDeckLimit = 25

type fetchNextRequest struct {
	UserID     uint64   `json:"user_id"`
	ExcludeIDs []uint64 `json:"exclude_ids"`
}

type fetchNextResponse struct {
	Status    string     `json:"status"`
	Candidate *Candidate `json:"candidate,omitempty"`
}

type deckResponse struct {
	Status     string      `json:"status"`
	Candidates []Candidate `json:"candidates"`
}

type putDecisionRequest struct {
	ActorID  uint64 `json:"actor_id"`
	TargetID uint64 `json:"target_id"`
	Decision string `json:"decision"`
}

type putDecisionResponse struct {
	Success bool `json:"success"`
	IsMatch bool `json:"is_match"`
}

type matchesResponse struct {
	Matches             []MatchedUser `json:"matches"`
	NextPaginationToken *string       `json:"next_pagination_token,omitempty"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// HandleDeck handles GET /v1/deck?user_id=&limit= — the initial candidate
// window for a fresh client session.
func (s *Service) HandleDeck(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		s.writeError(w, svcErr.Invalid("user_id must be a valid uint64"))
		return
	}

	limit := s.appCtx.Cfg.Match.DeckSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, svcErr.Invalid("limit must be a positive integer"))
			return
		}
		limit = min(n, maxDeckLimit)
	}

	candidates, err := s.Candidates(r.Context(), userID, nil, limit)
	if err != nil {
		s.appCtx.Logger.Error("deck fetch failed", "requester", userID, "err", err)
		s.writeError(w, err)
		return
	}

	status := statusSuccess
	if len(candidates) == 0 {
		status = statusEmpty
		candidates = []Candidate{}
	}
	writeJSON(w, http.StatusOK, deckResponse{Status: status, Candidates: candidates})
}

// HandleFetchNext handles POST /v1/deck/next — one replacement candidate,
// excluding everything the client is still holding.
func (s *Service) HandleFetchNext(w http.ResponseWriter, r *http.Request) {
	var req fetchNextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, svcErr.Invalid("malformed request body"))
		return
	}
	if req.UserID == 0 {
		s.writeError(w, svcErr.Invalid("user_id is required"))
		return
	}

	candidate, err := s.FetchNext(r.Context(), req.UserID, req.ExcludeIDs)
	if err != nil {
		s.appCtx.Logger.Error("fetch next failed", "requester", req.UserID, "err", err)
		s.writeError(w, err)
		return
	}

	resp := fetchNextResponse{Status: statusSuccess, Candidate: candidate}
	if candidate == nil {
		resp.Status = statusEmpty
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandlePutDecision handles PUT /v1/decisions.
func (s *Service) HandlePutDecision(w http.ResponseWriter, r *http.Request) {
	var req putDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, svcErr.Invalid("malformed request body"))
		return
	}
	if req.ActorID == 0 || req.TargetID == 0 {
		s.writeError(w, svcErr.Invalid("actor_id and target_id are required"))
		return
	}

	isMatch, err := s.PutDecision(r.Context(), req.ActorID, req.TargetID, req.Decision)
	if err != nil {
		s.appCtx.Logger.Error("decision failed",
			"actor", req.ActorID, "target", req.TargetID, "err", err)
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, putDecisionResponse{Success: true, IsMatch: isMatch})
}

// HandleMatches handles GET /v1/users/{userID}/matches.
func (s *Service) HandleMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		s.writeError(w, svcErr.Invalid("userID must be a valid uint64"))
		return
	}

	var token *string
	if raw := r.URL.Query().Get("pagination_token"); raw != "" {
		token = &raw
	}

	matches, nextToken, err := s.Matches(r.Context(), userID, token, s.appCtx.Cfg.Match.DeckSize)
	if err != nil {
		s.appCtx.Logger.Error("match listing failed", "user", userID, "err", err)
		s.writeError(w, err)
		return
	}
	if matches == nil {
		matches = []MatchedUser{}
	}

	writeJSON(w, http.StatusOK, matchesResponse{Matches: matches, NextPaginationToken: nextToken})
}

// HandleMatchCount handles GET /v1/users/{userID}/matches/count.
func (s *Service) HandleMatchCount(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		s.writeError(w, svcErr.Invalid("userID must be a valid uint64"))
		return
	}

	count, err := s.CountMatches(r.Context(), userID)
	if err != nil {
		s.appCtx.Logger.Error("match count failed", "user", userID, "err", err)
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, svcErr.Status(err), errorResponse{Status: statusError, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
