package clients

import (
	"context"
	"fmt"

	ws "collector-engine/internal/transport/websocket"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

// NotifyRunProgress pushes per-rule progress of an engine run to the user who
// triggered it.
func (c *WebSocketClient) NotifyRunProgress(
	ctx context.Context,
	userID int64,
	runID string,
	rulesDone int,
	rulesTotal int,
	processed int,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_user_of_engine_run_progress#%d", userID)
	message := &ws.Message{
		Type:    "run_progress",
		Channel: channel,
		Data: map[string]interface{}{
			"id":          runID,
			"rules_done":  rulesDone,
			"rules_total": rulesTotal,
			"processed":   processed,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}

func (c *WebSocketClient) NotifyRunComplete(
	ctx context.Context,
	userID int64,
	runID string,
	rulesEvaluated int,
	processed int,
	reportURL string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_user_when_engine_run_complete#%d", userID)
	message := &ws.Message{
		Type:    "run_complete",
		Channel: channel,
		Data: map[string]interface{}{
			"id":              runID,
			"rules_evaluated": rulesEvaluated,
			"processed":       processed,
			"report_url":      reportURL,
			"user_id":         userID,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}

// NotifyRunFailed tells the user an engine run aborted with an error.
func (c *WebSocketClient) NotifyRunFailed(ctx context.Context, userID int64, runID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_user_when_engine_run_failed#%d", userID)
	message := &ws.Message{
		Type:    "run_failed",
		Channel: channel,
		Data: map[string]interface{}{
			"id":      runID,
			"message": errMsg,
			"user_id": userID,
		},
	}

	c.hub.Broadcast(userID, message)
	return nil
}
