package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// InstanceSource fetches a depot's five planning artefacts (items,
// customers, orders, trucks, depots) from the upstream system of record,
// authenticating with a bearer token minted by auth.ServiceAccountTokenManager.
type InstanceSource struct {
	baseURL    string
	httpClient *http.Client
	getToken   func() (string, error)
}

// NewInstanceSource creates a new instance-source client.
func NewInstanceSource(baseURL string, getToken func() (string, error)) *InstanceSource {
	return &InstanceSource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		getToken:   getToken,
	}
}

// Fetch downloads one artefact (e.g. "items", "customers", "orders",
// "trucks", "depots") for the given depot and planning day, returning the
// raw JSON body for instance.Load to decode.
func (s *InstanceSource) Fetch(ctx context.Context, depotID, artefact string, day time.Time) ([]byte, error) {
	url := fmt.Sprintf("%s/depots/%s/%s?day=%s", s.baseURL, depotID, artefact, day.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("instance source: building request for %s: %w", artefact, err)
	}

	token, err := s.getToken()
	if err != nil {
		return nil, fmt.Errorf("instance source: acquiring token: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instance source: fetching %s: %w", artefact, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("instance source: reading %s response: %w", artefact, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("instance source: %s returned status %d: %s", artefact, resp.StatusCode, string(body))
	}

	return body, nil
}

// FetchAll downloads all five artefacts for one depot/day in the fixed
// order instance.Load expects them in.
func (s *InstanceSource) FetchAll(ctx context.Context, depotID string, day time.Time) (items, customers, orders, trucks, depots []byte, err error) {
	fetch := func(artefact string, dst *[]byte) error {
		raw, ferr := s.Fetch(ctx, depotID, artefact, day)
		if ferr != nil {
			return ferr
		}
		*dst = raw
		return nil
	}
	if err = fetch("items", &items); err != nil {
		return
	}
	if err = fetch("customers", &customers); err != nil {
		return
	}
	if err = fetch("orders", &orders); err != nil {
		return
	}
	if err = fetch("trucks", &trucks); err != nil {
		return
	}
	if err = fetch("depots", &depots); err != nil {
		return
	}
	return
}
