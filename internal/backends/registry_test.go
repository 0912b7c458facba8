package backends

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefaultAndLookup(t *testing.T) {
	reg := NewRegistry()
	local := NewStatevector(8, testLog())
	reg.Register(local)

	// First registration becomes the default.
	got, err := reg.Get("")
	require.NoError(t, err)
	assert.Equal(t, StatevectorName, got.Name())

	got, err = reg.Get(StatevectorName)
	require.NoError(t, err)
	assert.Equal(t, local, got)

	_, err = reg.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	err = reg.SetDefault("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewStatevector(8, testLog()))
	reg.Register(NewRemote(RemoteConfig{BaseURL: "http://127.0.0.1:1"}, testLog()))

	infos := reg.List(context.Background())
	require.Len(t, infos, 2)

	// Sorted by name: remote before statevector.
	assert.Equal(t, RemoteName, infos[0].Name)
	assert.Equal(t, StatevectorName, infos[1].Name)
	assert.True(t, infos[1].Available)
	assert.True(t, infos[1].Default)
	assert.False(t, infos[0].Available) // nothing listens there
}

func TestRemoteExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/api/circuits/run":
			assert.Equal(t, "Bearer sekret", r.Header.Get("Authorization"))
			var req Request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 2, req.Circuit.Qubits)

			_ = json.NewEncoder(w).Encode(Result{
				Qubits:             2,
				BasisProbabilities: []float64{0.5, 0, 0, 0.5},
				Counts:             map[string]int{"00": 5, "11": 3},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	remote := NewRemote(RemoteConfig{BaseURL: srv.URL, APIKey: "sekret"}, testLog())
	assert.True(t, remote.Available(context.Background()))

	req := bellRequest()
	req.Shots = 8
	res, err := remote.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, RemoteName, res.Backend)
	assert.Equal(t, 8, res.Counts["00"]+res.Counts["11"])
}

func TestRemoteExecuteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	remote := NewRemote(RemoteConfig{BaseURL: srv.URL}, testLog())
	_, err := remote.Execute(context.Background(), bellRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
