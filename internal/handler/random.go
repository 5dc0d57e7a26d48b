package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/permission"
)

// RandomEvent is the composed event payload recorded for every
// "wasi:random/random" call, per spec §4.4 ("handler events include ALL
// data") and scenario S2.
type RandomEvent struct {
	kind string

	// GetBytesCall/GetBytesResult are populated for get-random-bytes.
	GetBytesCall   *RandomBytesCall   `json:"call,omitempty"`
	GetBytesResult *RandomBytesResult `json:"result,omitempty"`

	// GetU64Call/GetU64Result are populated for get-random-u64.
	GetU64Call   *RandomU64Call   `json:"u64_call,omitempty"`
	GetU64Result *RandomU64Result `json:"u64_result,omitempty"`

	// Denied is populated instead of any of the above when permission
	// was refused.
	Denied *PermissionDeniedEvent `json:"denied,omitempty"`
}

// EventType implements actorstore.EventEnvelope.
func (e RandomEvent) EventType() string { return e.kind }

// Serialize implements actorstore.EventEnvelope.
func (e RandomEvent) Serialize() ([]byte, error) {
	return json.Marshal(e)
}

// RandomBytesCall is the call-event payload for get-random-bytes.
type RandomBytesCall struct {
	RequestedSize int `json:"requested_size"`
}

// RandomBytesResult is the result-event payload for get-random-bytes. Bytes
// contains the actual data returned, per spec §4.4's replay requirement.
type RandomBytesResult struct {
	GeneratedSize int    `json:"generated_size"`
	Bytes         []byte `json:"bytes"`
	Success       bool   `json:"success"`
}

// RandomU64Call is the call-event payload for get-random-u64.
type RandomU64Call struct {
	Ceiling uint64 `json:"ceiling"`
}

// RandomU64Result is the result-event payload for get-random-u64.
type RandomU64Result struct {
	Value   uint64 `json:"value"`
	Success bool   `json:"success"`
}

// PermissionDeniedEvent mirrors a permission.PermissionError for chain
// recording, per spec §4.4 ("every permissioned operation records a
// PermissionDenied event if it is denied").
type PermissionDeniedEvent struct {
	Operation string `json:"operation"`
	Argument  string `json:"argument"`
	Reason    string `json:"reason"`
}

func deniedEvent(kind string, err *permission.PermissionError) RandomEvent {
	return RandomEvent{
		kind: kind,
		Denied: &PermissionDeniedEvent{
			Operation: err.Operation,
			Argument:  err.Argument,
			Reason:    err.Reason,
		},
	}
}

// RandomHandler implements the "wasi:random/random" handler. Source is the
// entropy source used for get-random-bytes; tests substitute a deterministic
// reader to exercise scenario S2 (deterministic replay).
type RandomHandler struct {
	Source io.Reader
}

// Name implements Handler.
func (h *RandomHandler) Name() string { return "random" }

// Imports implements Handler.
func (h *RandomHandler) Imports() (string, bool) {
	return "wasi:random/random@0.2.3", true
}

// Exports implements Handler.
func (h *RandomHandler) Exports() (string, bool) { return "", false }

// CreateInstance implements Handler, returning a fresh per-actor clone. The
// entropy source is shared; it is safe for concurrent use (crypto/rand.Reader
// is, and tests inject their own safe readers).
func (h *RandomHandler) CreateInstance() Handler {
	return &RandomHandler{Source: h.Source}
}

// Start implements Handler; this handler has no background task.
func (h *RandomHandler) Start(ctx context.Context, _ ActorHandle, shutdown <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-shutdown:
		return nil
	}
}

// AddExportFunctions implements Handler; this handler requires no exports.
func (h *RandomHandler) AddExportFunctions(ActorInstance) error { return nil }

// SetupHostFunctions installs get-random-bytes and get-random-u64, each
// permission-checked and chain-recorded per spec §4.4.
func (h *RandomHandler) SetupHostFunctions(component ActorComponent) error {
	actorHandle := component.Handle()

	err := component.LinkHostFunction(
		"wasi:random/random", "get-random-bytes",
		func(ctx context.Context, params []byte) ([]byte, error) {
			return h.getRandomBytes(actorHandle, params)
		},
	)
	if err != nil {
		return err
	}

	return component.LinkHostFunction(
		"wasi:random/random", "get-random-u64",
		func(ctx context.Context, params []byte) ([]byte, error) {
			return h.getRandomU64(actorHandle, params)
		},
	)
}

func (h *RandomHandler) getRandomBytes(actorHandle ActorHandle, params []byte) ([]byte, error) {
	var req struct {
		Size int `json:"size"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding get-random-bytes params: %w", err)
	}

	perms := actorHandle.Permissions()

	result := permission.CheckRandomOperation(perms, uint64(req.Size))
	if result.IsErr() {
		_, permErr := result.Unpack()
		pe, _ := asPermissionError(permErr)

		_, _ = actorstore.RecordHandlerEvent(
			actorHandle.Store(),
			func(e RandomEvent) RandomEvent { return e },
			deniedEvent("wasi:random/random/get-random-bytes", pe),
			nil,
		)

		return nil, permErr
	}

	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e RandomEvent) RandomEvent { return e },
		RandomEvent{
			kind:         "wasi:random/random/get-random-bytes",
			GetBytesCall: &RandomBytesCall{RequestedSize: req.Size},
		},
		nil,
	)

	buf := make([]byte, req.Size)
	if req.Size > 0 {
		if _, err := io.ReadFull(h.Source, buf); err != nil {
			return nil, fmt.Errorf("reading random bytes: %w", err)
		}
	}

	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e RandomEvent) RandomEvent { return e },
		RandomEvent{
			kind: "wasi:random/random/get-random-bytes",
			GetBytesResult: &RandomBytesResult{
				GeneratedSize: len(buf),
				Bytes:         buf,
				Success:       true,
			},
		},
		nil,
	)

	return json.Marshal(struct {
		Bytes []byte `json:"bytes"`
	}{Bytes: buf})
}

func (h *RandomHandler) getRandomU64(actorHandle ActorHandle, params []byte) ([]byte, error) {
	var req struct {
		Ceiling uint64 `json:"ceiling"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding get-random-u64 params: %w", err)
	}

	perms := actorHandle.Permissions()

	result := permission.CheckRandomU64Operation(perms, req.Ceiling)
	if result.IsErr() {
		_, permErr := result.Unpack()
		pe, _ := asPermissionError(permErr)

		_, _ = actorstore.RecordHandlerEvent(
			actorHandle.Store(),
			func(e RandomEvent) RandomEvent { return e },
			deniedEvent("wasi:random/random/get-random-u64", pe),
			nil,
		)

		return nil, permErr
	}

	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e RandomEvent) RandomEvent { return e },
		RandomEvent{
			kind:       "wasi:random/random/get-random-u64",
			GetU64Call: &RandomU64Call{Ceiling: req.Ceiling},
		},
		nil,
	)

	ceiling := req.Ceiling
	if ceiling == 0 {
		ceiling = math.MaxUint64
	}

	value, err := randUint64Below(h.Source, ceiling)
	if err != nil {
		return nil, fmt.Errorf("generating random u64: %w", err)
	}

	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e RandomEvent) RandomEvent { return e },
		RandomEvent{
			kind: "wasi:random/random/get-random-u64",
			GetU64Result: &RandomU64Result{Value: value, Success: true},
		},
		nil,
	)

	return json.Marshal(struct {
		Value uint64 `json:"value"`
	}{Value: value})
}

// randUint64Below draws an unbiased uint64 in [0, ceiling) from src.
func randUint64Below(src io.Reader, ceiling uint64) (uint64, error) {
	for {
		var buf [8]byte
		if _, err := io.ReadFull(src, buf[:]); err != nil {
			return 0, err
		}

		var v uint64
		for _, b := range buf {
			v = v<<8 | uint64(b)
		}

		if ceiling == math.MaxUint64 {
			return v, nil
		}

		// Draws at or above the largest multiple of ceiling are
		// rejected, so every residue is equally likely.
		if v < math.MaxUint64-math.MaxUint64%ceiling {
			return v % ceiling, nil
		}
	}
}

func asPermissionError(err error) (*permission.PermissionError, bool) {
	pe, ok := err.(*permission.PermissionError)
	return pe, ok
}

var _ Handler = (*RandomHandler)(nil)
