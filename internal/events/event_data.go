package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a class of system event.
type EventType string

const (
	RunStarted          EventType = "RUN_STARTED"
	RunCompleted        EventType = "RUN_COMPLETED"
	RunFailed           EventType = "RUN_FAILED"
	ArchivePruned       EventType = "ARCHIVE_PRUNED"
	BackupCompleted     EventType = "BACKUP_COMPLETED"
	BackupFailed        EventType = "BACKUP_FAILED"
	SystemStatusChanged EventType = "SYSTEM_STATUS_CHANGED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// KnownTypes lists every event type the stream endpoints subscribe to
// when no filter is given.
func KnownTypes() []EventType {
	return []EventType{
		RunStarted,
		RunCompleted,
		RunFailed,
		ArchivePruned,
		BackupCompleted,
		BackupFailed,
		SystemStatusChanged,
		ErrorOccurred,
	}
}

// Event is one published system event.
type Event struct {
	Type      EventType              `json:"type"`
	Module    string                 `json:"module"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// EventData is implemented by the typed payload of each event kind.
type EventData interface {
	EventType() EventType
}

// RunStartedData accompanies RunStarted events.
type RunStartedData struct {
	RunID       string `json:"run_id"`
	Fingerprint string `json:"fingerprint"`
	Backend     string `json:"backend"`
	Qubits      int    `json:"qubits"`
	Gates       int    `json:"gates"`
	Shots       int    `json:"shots,omitempty"`
}

// EventType returns the event type for RunStartedData.
func (d *RunStartedData) EventType() EventType { return RunStarted }

// RunCompletedData accompanies RunCompleted events.
type RunCompletedData struct {
	RunID      string  `json:"run_id"`
	Backend    string  `json:"backend"`
	DurationMs float64 `json:"duration_ms"`
	Entangled  bool    `json:"entangled"`
}

// EventType returns the event type for RunCompletedData.
func (d *RunCompletedData) EventType() EventType { return RunCompleted }

// RunFailedData accompanies RunFailed events.
type RunFailedData struct {
	RunID   string `json:"run_id,omitempty"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error"`
}

// EventType returns the event type for RunFailedData.
func (d *RunFailedData) EventType() EventType { return RunFailed }

// ArchivePrunedData accompanies ArchivePruned events.
type ArchivePrunedData struct {
	Removed       int `json:"removed"`
	RetentionDays int `json:"retention_days"`
}

// EventType returns the event type for ArchivePrunedData.
func (d *ArchivePrunedData) EventType() EventType { return ArchivePruned }

// BackupCompletedData accompanies BackupCompleted events.
type BackupCompletedData struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventType returns the event type for BackupCompletedData.
func (d *BackupCompletedData) EventType() EventType { return BackupCompleted }

// BackupFailedData accompanies BackupFailed events.
type BackupFailedData struct {
	Bucket string `json:"bucket"`
	Error  string `json:"error"`
}

// EventType returns the event type for BackupFailedData.
func (d *BackupFailedData) EventType() EventType { return BackupFailed }

// SystemStatusChangedData accompanies SystemStatusChanged events.
type SystemStatusChangedData struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// EventType returns the event type for SystemStatusChangedData.
func (d *SystemStatusChangedData) EventType() EventType { return SystemStatusChanged }

// ErrorEventData accompanies ErrorOccurred events.
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData.
func (d *ErrorEventData) EventType() EventType { return ErrorOccurred }

// Manager emits typed events onto the bus and logs them.
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates an event manager over a bus.
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("component", "events").Logger(),
	}
}

// EmitTyped publishes an event with a typed payload.
func (m *Manager) EmitTyped(module string, data EventData) {
	eventType := data.EventType()
	m.bus.Emit(eventType, module, toMap(data))
	m.log.Debug().
		Str("event_type", string(eventType)).
		Str("module", module).
		Msg("Event emitted")
}

// EmitError publishes an ErrorOccurred event.
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.EmitTyped(module, &ErrorEventData{Error: err.Error(), Context: context})
}

// toMap flattens a typed payload into the generic event data map the
// stream endpoints serialize.
func toMap(data EventData) map[string]interface{} {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
