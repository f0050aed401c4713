package transform

import "github.com/pir8aye/refmap/internal/history"

// MigrationInfo identifies the migration a transformation runs within: the
// label name the workflow writes into destination changes and the destination
// history when the destination supports reading it.
type MigrationInfo struct {
	originLabel        string
	destinationHistory history.Visitable
}

// NewMigrationInfo constructs a MigrationInfo. The destination history may be
// nil when the destination cannot be read.
func NewMigrationInfo(originLabel string, destinationHistory history.Visitable) MigrationInfo {
	return MigrationInfo{originLabel: originLabel, destinationHistory: destinationHistory}
}

// OriginLabel returns the label name recording origin references in the destination.
func (info MigrationInfo) OriginLabel() string {
	return info.originLabel
}

// DestinationVisitable returns the destination history, or nil when unavailable.
func (info MigrationInfo) DestinationVisitable() history.Visitable {
	return info.destinationHistory
}

// Work carries the in-flight change description through a transformation run.
type Work struct {
	message       string
	migrationInfo MigrationInfo
}

// NewWork constructs a Work context around the provided message.
func NewWork(message string, migrationInfo MigrationInfo) *Work {
	return &Work{message: message, migrationInfo: migrationInfo}
}

// Message returns the current change description.
func (work *Work) Message() string {
	return work.message
}

// SetMessage replaces the change description.
func (work *Work) SetMessage(message string) {
	work.message = message
}

// MigrationInfo returns the migration identity for this run.
func (work *Work) MigrationInfo() MigrationInfo {
	return work.migrationInfo
}
