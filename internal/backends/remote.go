package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/qlens/qlens/internal/modules/quantum"
	"github.com/qlens/qlens/internal/modules/state"
)

// RemoteName is the registry name of the remote execution service.
const RemoteName = "remote"

// Remote forwards circuits to a peer service over its run endpoint and
// unwraps the response envelope, so a second instance of this service
// can serve as an execution backend without a dedicated wire format.
type Remote struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// RemoteConfig configures the remote backend client.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewRemote creates the remote backend client.
func NewRemote(cfg RemoteConfig, log zerolog.Logger) *Remote {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "remote_backend").Logger(),
	}
}

// Name implements Backend.
func (r *Remote) Name() string {
	return RemoteName
}

// Capabilities implements Backend. The remote service owns its own
// width cap; this client only reports what the transport supports.
func (r *Remote) Capabilities() Capabilities {
	return Capabilities{
		MaxQubits:       0, // enforced by the remote service
		SupportsShots:   true,
		SupportsDensity: true,
		Simulator:       false,
	}
}

// Available implements Backend with a health probe.
func (r *Remote) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug().Err(err).Msg("Remote backend health probe failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// remoteRunRequest is the peer run endpoint's request shape. The
// backend selector is pinned to the peer's in-process simulator so
// chained services cannot recurse through each other.
type remoteRunRequest struct {
	Circuit      quantum.Circuit         `json:"circuit"`
	InitialState *remoteInitialStateSpec `json:"initial_state,omitempty"`
	Backend      string                  `json:"backend,omitempty"`
	Shots        int                     `json:"shots,omitempty"`
	Seed         int64                   `json:"seed,omitempty"`
	Density      bool                    `json:"density,omitempty"`
}

// remoteInitialStateSpec carries the initial state in notation form:
// the amplitudes render as a vector literal the peer's parser reads.
type remoteInitialStateSpec struct {
	Notation string `json:"notation"`
	Text     string `json:"text"`
}

// Execute implements Backend.
func (r *Remote) Execute(ctx context.Context, req Request) (*Result, error) {
	payload := remoteRunRequest{
		Circuit: req.Circuit,
		Backend: StatevectorName,
		Shots:   req.Shots,
		Seed:    req.Seed,
		Density: req.Density,
	}
	if len(req.InitialState) > 0 {
		literal, err := json.Marshal(req.InitialState)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize initial state: %w", err)
		}
		payload.InitialState = &remoteInitialStateSpec{
			Notation: string(state.NotationVector),
			Text:     string(literal),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize execution request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/api/circuits/run", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build execution request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote execution request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("remote execution returned status %d: %s", resp.StatusCode, string(payload))
	}

	var envelope struct {
		Data struct {
			RunID  string  `json:"run_id"`
			Result *Result `json:"result"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode remote execution response: %w", err)
	}
	if envelope.Data.Result == nil {
		return nil, fmt.Errorf("remote execution response carries no result bundle")
	}

	result := envelope.Data.Result
	result.Backend = RemoteName
	return result, nil
}
