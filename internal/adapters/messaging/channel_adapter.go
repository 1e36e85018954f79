package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zatekoja/carematch/internal/domain/providers"
	"github.com/zatekoja/carematch/pkg/config"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
	"github.com/zatekoja/carematch/pkg/retry"
)

// ChannelAdapter implements the ChannelProvisioner contract against the
// messaging service's create-or-get endpoint. The endpoint itself is
// idempotent per match ID; the adapter only adds transport concerns.
type ChannelAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewChannelAdapter creates a new messaging channel adapter
func NewChannelAdapter(cfg *config.MessagingConfig) providers.ChannelProvisioner {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ChannelAdapter{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryCfg: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2.0,
		},
	}
}

type ensureChannelRequest struct {
	MatchID      string `json:"match_id"`
	AgencyID     string `json:"agency_id"`
	FamilyUserID string `json:"family_user_id"`
	FamilyName   string `json:"family_name"`
}

type ensureChannelResponse struct {
	ChannelID string `json:"channel_id"`
	Created   bool   `json:"created"`
}

// EnsureChannel creates, or returns the existing, conversation channel for a
// match. Retries transient failures with backoff within the caller's context.
func (a *ChannelAdapter) EnsureChannel(ctx context.Context, matchID, agencyID, familyUserID, familyName string) (string, error) {
	payload, err := json.Marshal(ensureChannelRequest{
		MatchID:      matchID,
		AgencyID:     agencyID,
		FamilyUserID: familyUserID,
		FamilyName:   familyName,
	})
	if err != nil {
		return "", apperrors.NewInternalError("failed to marshal channel request", err)
	}

	var channelID string
	err = retry.Do(ctx, a.retryCfg, func() error {
		id, reqErr := a.ensureChannelOnce(ctx, payload)
		if reqErr != nil {
			return reqErr
		}
		channelID = id
		return nil
	})
	if err != nil {
		return "", apperrors.NewExternalError(fmt.Sprintf("failed to provision channel for match %s", matchID), err)
	}

	return channelID, nil
}

func (a *ChannelAdapter) ensureChannelOnce(ctx context.Context, payload []byte) (string, error) {
	url := a.baseURL + "/api/channels/ensure"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("messaging service returned %d: %s", resp.StatusCode, string(body))
	}

	var out ensureChannelResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode channel response: %w", err)
	}
	if out.ChannelID == "" {
		return "", fmt.Errorf("messaging service returned empty channel id")
	}

	return out.ChannelID, nil
}
