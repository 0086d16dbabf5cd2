// Package events defines the messages pushed to dashboards over the
// websocket connection.
package events

import "time"

// Protocol version
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "iwa-dashboard-events"
)

// Event types
const (
	// TypeConnection is sent once to each client right after it registers.
	TypeConnection = "connection"

	// TypeDatasetReplaced announces that an upload replaced the current dataset.
	TypeDatasetReplaced = "dataset:replaced"
)

// Connection is the payload of a TypeConnection event.
type Connection struct {
	ClientID string `json:"client_id"`
	Protocol string `json:"protocol"`
	Version  string `json:"version"`
}

// DatasetReplaced is the payload of a TypeDatasetReplaced event. Clients
// refetch tables and charts when they receive it.
type DatasetReplaced struct {
	Key         string    `json:"key"`
	PreviousKey string    `json:"previous_key,omitempty"`
	Source      string    `json:"source"`
	Networks    []string  `json:"networks"`
	LoadedAt    time.Time `json:"loaded_at"`
}
