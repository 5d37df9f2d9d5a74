package service

import (
	"encoding/json"

	ws "backend/internal/websocket"
)

// Websocket event names pushed to connected dashboards
const (
	EventFactoryStock = "factory_stock_changed"
	EventStoreStock   = "store_stock_changed"
	EventBatchStage   = "batch_stage_changed"
)

// notify marshals and broadcasts a ledger event. Broadcasting happens after
// the transaction commits; a nil hub (tests, CLI tools) is a no-op.
func notify(hub *ws.Hub, event string, data map[string]interface{}) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return
	}
	hub.Broadcast <- payload
}
