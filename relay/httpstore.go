package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/derek2403/token2049/core"
)

// HTTPStore is a Store that talks to a remote notifications API.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore creates a store for the API rooted at baseURL.
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type apiResponse struct {
	Success         bool                      `json:"success"`
	Error           string                    `json:"error,omitempty"`
	Notification    *core.NotificationRecord  `json:"notification,omitempty"`
	HasNotification bool                      `json:"hasNotification,omitempty"`
	Notifications   []core.NotificationRecord `json:"notifications,omitempty"`
	Count           int                       `json:"count,omitempty"`
	IDs             []string                  `json:"ids,omitempty"`
	Deleted         bool                      `json:"deleted,omitempty"`
}

func (s *HTTPStore) Insert(ctx context.Context, records []core.NotificationRecord) error {
	body := map[string]interface{}{"notifications": records}
	_, err := s.do(ctx, http.MethodPost, "/api/notifications", body)
	return err
}

func (s *HTTPStore) Get(ctx context.Context, id string) (*core.NotificationRecord, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/notifications/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	if resp.Notification == nil {
		return nil, core.ErrNotFound
	}
	return resp.Notification, nil
}

func (s *HTTPStore) Latest(ctx context.Context, recipient string) (*core.NotificationRecord, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/notifications?walletAddress="+url.QueryEscape(recipient), nil)
	if err != nil {
		return nil, err
	}
	if !resp.HasNotification {
		return nil, nil
	}
	return resp.Notification, nil
}

func (s *HTTPStore) Pending(ctx context.Context, recipient string) ([]core.NotificationRecord, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/notifications/pending?walletAddress="+url.QueryEscape(recipient), nil)
	if err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

func (s *HTTPStore) Delete(ctx context.Context, id string) (bool, error) {
	resp, err := s.do(ctx, http.MethodDelete, "/api/notifications/"+url.PathEscape(id), nil)
	if err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body interface{}) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(core.ErrStoreFailure, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(core.ErrStoreFailure, "read response: %v", err)
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(core.ErrStoreFailure, "decode response (status %d): %v", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrap(core.ErrNotFound, out.Error)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, errors.Wrap(core.ErrValidation, out.Error)
	case resp.StatusCode >= 300 || !out.Success:
		return nil, errors.Wrap(core.ErrStoreFailure, fmt.Sprintf("status %d: %s", resp.StatusCode, out.Error))
	}
	return &out, nil
}
