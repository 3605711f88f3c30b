// Package ingest holds types shared by workout importers.
package ingest

// Result holds the outcome of an import.
type Result struct {
	LogsReceived   int `json:"logs_received"`
	LogsInserted   int `json:"logs_inserted"`
	LogsSkipped    int `json:"logs_skipped"`
	SetsReceived   int `json:"sets_received"`
	SetsInserted   int `json:"sets_inserted"`
	WarmupsSkipped int `json:"warmups_skipped"`
	RecordsUpdated int `json:"records_updated"`

	Message string `json:"message,omitempty"`
}
