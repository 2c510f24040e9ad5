package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sevenhill/schedsync/internal/domain"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTStore talks to a remote schedule service over HTTP JSON. Expected
// surface: GET /entries?owner_id=, POST /entries, PATCH /entries/{id},
// DELETE /entries/{id}.
type RESTStore struct {
	baseURL string
	token   string
	client  HTTPDoer
}

func NewRESTStore(baseURL, token string, client HTTPDoer) *RESTStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RESTStore{baseURL: baseURL, token: token, client: client}
}

func (s *RESTStore) List(ctx context.Context, ownerID string) ([]domain.ScheduleEntry, error) {
	endpoint := s.baseURL + "/entries?owner_id=" + url.QueryEscape(ownerID)
	var out []domain.ScheduleEntry
	if err := s.call(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RESTStore) Create(ctx context.Context, entry domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	var out domain.ScheduleEntry
	if err := s.call(ctx, http.MethodPost, s.baseURL+"/entries", entry, &out); err != nil {
		return domain.ScheduleEntry{}, err
	}
	if out.ID == "" {
		return domain.ScheduleEntry{}, &StoreError{Op: "create", Err: fmt.Errorf("response missing entry id")}
	}
	return out, nil
}

func (s *RESTStore) Update(ctx context.Context, id string, mutation domain.EntryMutation) error {
	return s.call(ctx, http.MethodPatch, s.baseURL+"/entries/"+url.PathEscape(id), mutation, nil)
}

func (s *RESTStore) Delete(ctx context.Context, id string) error {
	return s.call(ctx, http.MethodDelete, s.baseURL+"/entries/"+url.PathEscape(id), nil, nil)
}

func (s *RESTStore) call(ctx context.Context, method, endpoint string, payload, out any) error {
	op := method + " " + endpoint
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &StoreError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &StoreError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &StoreError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StoreError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &StoreError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
