package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/socialchef/leftovers/internal/httpclient"
	"github.com/socialchef/leftovers/internal/utils"
)

// ProgressEvent is the realtime event name clients subscribe to.
const ProgressEvent = "progress"

type ProgressUpdate struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type realtimeMessage struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload ProgressUpdate `json:"payload"`
}

// ProgressBroadcaster publishes job progress through the Supabase Realtime
// broadcast REST endpoint, one topic per user.
type ProgressBroadcaster struct {
	endpoint   string
	serviceKey string
	httpClient *http.Client
}

func NewProgressBroadcaster(supabaseURL, serviceKey string) *ProgressBroadcaster {
	return &ProgressBroadcaster{
		endpoint:   strings.TrimSuffix(supabaseURL, "/") + "/realtime/v1/api/broadcast",
		serviceKey: serviceKey,
		httpClient: httpclient.InstrumentedClient,
	}
}

// Channel returns the realtime topic a user's job updates go to.
func Channel(userID string) string {
	return fmt.Sprintf("user:%s:recipes", userID)
}

func (b *ProgressBroadcaster) Broadcast(ctx context.Context, userID string, update ProgressUpdate) error {
	body, err := json.Marshal(map[string][]realtimeMessage{
		"messages": {{Topic: Channel(userID), Event: ProgressEvent, Payload: update}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast: %w", err)
	}

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Supabase Realtime"), http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.serviceKey)
	req.Header.Set("apikey", b.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to broadcast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("broadcast failed: %w", &utils.StatusError{StatusCode: resp.StatusCode, Body: string(msg)})
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
