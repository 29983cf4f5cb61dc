package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
)

// notificationsAPI serves the notifications contract from a MemoryStore.
func notificationsAPI(t *testing.T, store *MemoryStore) http.Handler {
	reply := func(w http.ResponseWriter, status int, body map[string]interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Notifications []core.NotificationRecord `json:"notifications"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if len(body.Notifications) == 0 {
			reply(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "No notifications provided"})
			return
		}
		require.NoError(t, store.Insert(r.Context(), body.Notifications))
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "count": len(body.Notifications)})
	})
	mux.HandleFunc("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		rec, _ := store.Latest(r.Context(), r.URL.Query().Get("walletAddress"))
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "notification": rec, "hasNotification": rec != nil})
	})
	mux.HandleFunc("GET /api/notifications/pending", func(w http.ResponseWriter, r *http.Request) {
		recs, _ := store.Pending(r.Context(), r.URL.Query().Get("walletAddress"))
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "notifications": recs})
	})
	mux.HandleFunc("GET /api/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			reply(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Notification not found"})
			return
		}
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "notification": rec})
	})
	mux.HandleFunc("DELETE /api/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted, _ := store.Delete(r.Context(), r.PathValue("id"))
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "deleted": deleted})
	})
	return mux
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	backing := NewMemoryStore()
	srv := httptest.NewServer(notificationsAPI(t, backing))
	defer srv.Close()

	r := New(NewHTTPStore(srv.URL + "/"))
	ctx := context.Background()

	ids, err := r.Publish(ctx, request(payer, "4.5"), request(payer, "1"))
	require.NoError(t, err)
	require.Len(t, ids, 2)

	latest, err := r.FetchLatest(ctx, payer)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, strings.ToLower(payer), latest.To)

	pending, err := r.FetchPending(ctx, payer)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	rec, err := r.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "4.5", rec.Amount)
	assert.Equal(t, core.TokenCUSD, rec.TokenSymbol)

	deleted, err := r.Settle(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = r.Get(ctx, ids[0])
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestHTTPStoreNoNotification(t *testing.T) {
	srv := httptest.NewServer(notificationsAPI(t, NewMemoryStore()))
	defer srv.Close()

	latest, err := NewHTTPStore(srv.URL).Latest(context.Background(), strings.ToLower(payer))
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestHTTPStoreServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPStore(url).Pending(context.Background(), strings.ToLower(payer))
	assert.ErrorIs(t, err, core.ErrStoreFailure)
}

func TestHTTPStoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to read notifications"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPStore(srv.URL).Latest(context.Background(), strings.ToLower(payer))
	assert.ErrorIs(t, err, core.ErrStoreFailure)
	assert.Contains(t, err.Error(), "Failed to read notifications")
}
