package events

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := NewBus(log)

	var got []*Event
	bus.Subscribe(RunCompleted, func(e *Event) {
		got = append(got, e)
	})

	bus.Emit(RunCompleted, "runner", map[string]interface{}{"run_id": "abc"})
	bus.Emit(RunStarted, "runner", nil) // no subscriber, must not reach the handler

	require.Len(t, got, 1)
	assert.Equal(t, RunCompleted, got[0].Type)
	assert.Equal(t, "runner", got[0].Module)
	assert.Equal(t, "abc", got[0].Data["run_id"])
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestBusFansOut(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := NewBus(log)

	count := 0
	bus.Subscribe(ArchivePruned, func(*Event) { count++ })
	bus.Subscribe(ArchivePruned, func(*Event) { count++ })

	bus.Emit(ArchivePruned, "scheduler", nil)
	assert.Equal(t, 2, count)
}

func TestManagerEmitTyped(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := NewBus(log)
	manager := NewManager(bus, log)

	var got *Event
	bus.Subscribe(RunStarted, func(e *Event) { got = e })

	manager.EmitTyped("runner", &RunStartedData{
		RunID:   "run-1",
		Backend: "statevector",
		Qubits:  2,
		Gates:   3,
	})

	require.NotNil(t, got)
	assert.Equal(t, "run-1", got.Data["run_id"])
	assert.Equal(t, "statevector", got.Data["backend"])
	assert.Equal(t, float64(2), got.Data["qubits"])
}

func TestManagerEmitError(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := NewBus(log)
	manager := NewManager(bus, log)

	var got *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { got = e })

	manager.EmitError("backup", errors.New("bucket unreachable"), map[string]interface{}{"bucket": "b"})

	require.NotNil(t, got)
	assert.Equal(t, "bucket unreachable", got.Data["error"])
}

func TestEventDataTypes(t *testing.T) {
	tests := []struct {
		data EventData
		want EventType
	}{
		{&RunStartedData{}, RunStarted},
		{&RunCompletedData{}, RunCompleted},
		{&RunFailedData{}, RunFailed},
		{&ArchivePrunedData{}, ArchivePruned},
		{&BackupCompletedData{}, BackupCompleted},
		{&BackupFailedData{}, BackupFailed},
		{&SystemStatusChangedData{}, SystemStatusChanged},
		{&ErrorEventData{}, ErrorOccurred},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.data.EventType())
	}
	assert.Len(t, KnownTypes(), len(tests))
}
