// internal/storage/storage.go
package storage

import "github.com/antarena/antclient/pkg/core"

// Backend is the interface all storage implementations must satisfy.
// Calls arrive from the dispatcher workers, never from the turn loop.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Match management (StartMatch assigns ID to the passed pointer)
	StartMatch(m *core.Match) error
	EndMatch(result core.MatchResult) error

	// State recording
	RecordTurn(r *core.TurnRecord) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the replay server.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
