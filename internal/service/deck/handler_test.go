package deck_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchdeck/matchdeck/internal/app"
	"github.com/matchdeck/matchdeck/internal/db"
	"github.com/matchdeck/matchdeck/internal/server"
	"github.com/matchdeck/matchdeck/internal/service/deck"
)

func setupRouter(t *testing.T) (http.Handler, *app.AppContext) {
	t.Helper()
	appCtx := setupApp(t)
	router := server.NewRouter(deck.NewRegistrar(appCtx))
	return router, appCtx
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleFetchNext(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/deck/next", map[string]any{
		"user_id":     1,
		"exclude_ids": []uint64{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status    string `json:"status"`
		Candidate *struct {
			ID       uint64 `json:"id"`
			Username string `json:"username"`
			Gender   string `json:"gender"`
		} `json:"candidate"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, resp.Candidate)
	assert.Equal(t, uint64(2), resp.Candidate.ID)
	assert.Equal(t, "user2", resp.Candidate.Username)

	// holding the only candidate client-side produces the explicit empty
	// signal, not an error
	rec = doJSON(t, router, http.MethodPost, "/v1/deck/next", map[string]any{
		"user_id":     1,
		"exclude_ids": []uint64{2},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "empty", resp.Status)
	assert.Nil(t, resp.Candidate)
}

func TestHandleDeck(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/deck?user_id=1&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status     string `json:"status"`
		Candidates []struct {
			ID uint64 `json:"id"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, uint64(2), resp.Candidates[0].ID)

	// incomplete profile → empty status with an empty list
	rec = doJSON(t, router, http.MethodGet, "/v1/deck?user_id=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "empty", resp.Status)
	assert.Empty(t, resp.Candidates)

	// malformed user_id
	rec = doJSON(t, router, http.MethodGet, "/v1/deck?user_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePutDecision(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/v1/decisions", map[string]any{
		"actor_id": 1, "target_id": 2, "decision": "accept",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		IsMatch bool `json:"is_match"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.IsMatch)

	rec = doJSON(t, router, http.MethodPut, "/v1/decisions", map[string]any{
		"actor_id": 2, "target_id": 1, "decision": "accept",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.IsMatch)
}

func TestHandlePutDecisionErrors(t *testing.T) {
	router, _ := setupRouter(t)

	// self action
	rec := doJSON(t, router, http.MethodPut, "/v1/decisions", map[string]any{
		"actor_id": 1, "target_id": 1, "decision": "accept",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// invalid decision value
	rec = doJSON(t, router, http.MethodPut, "/v1/decisions", map[string]any{
		"actor_id": 1, "target_id": 2, "decision": "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// inactive target
	rec = doJSON(t, router, http.MethodPut, "/v1/decisions", map[string]any{
		"actor_id": 1, "target_id": 4, "decision": "accept",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleMatchesAndCount(t *testing.T) {
	router, appCtx := setupRouter(t)

	// create a match directly through the service
	svc := deck.NewService(appCtx)
	ctx := context.Background()
	_, err := svc.PutDecision(ctx, 1, 2, db.DecisionAccept)
	require.NoError(t, err)
	_, err = svc.PutDecision(ctx, 2, 1, db.DecisionAccept)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/v1/users/1/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Matches []struct {
			ID       uint64 `json:"id"`
			Username string `json:"username"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, uint64(2), resp.Matches[0].ID)
	assert.Equal(t, "user2", resp.Matches[0].Username)

	rec = doJSON(t, router, http.MethodGet, "/v1/users/2/matches/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var countResp struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &countResp))
	assert.Equal(t, int64(1), countResp.Count)

	// a user with no matches gets an empty list, not a 404
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/users/%d/matches", 3), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Matches)
}
