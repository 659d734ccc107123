package plannerserver

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// CreateSessionRequest opens a planner for one side. Empty difficulty and
// profile fall back to the server defaults. Struct numbers are doubles, so
// seeds above 2^53 lose precision on the wire.
type CreateSessionRequest struct {
	Side       string `json:"side"`
	Difficulty string `json:"difficulty,omitempty"`
	Profile    string `json:"profile,omitempty"`
	Seed       int64  `json:"seed,omitempty"`
}

type CreateSessionResponse struct {
	SessionID  string `json:"session_id"`
	Side       string `json:"side"`
	Difficulty string `json:"difficulty"`
	Profile    string `json:"profile"`
}

// SessionRequest addresses an existing session.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// SessionInfo describes a session after a reset or close.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	Decisions int    `json:"decisions"`
	LastTurn  int    `json:"last_turn"`
}

// DecideRequest carries the full snapshot. RequestID makes retries of the
// same call return the cached answer instead of advancing the memory twice.
type DecideRequest struct {
	SessionID string          `json:"session_id"`
	RequestID string          `json:"request_id,omitempty"`
	State     *core.GameState `json:"state"`
}

// DecideResponse is the chosen command plus the ranked fallbacks a host
// should try, in order, when the first one is refused.
type DecideResponse struct {
	SessionID    string             `json:"session_id"`
	Turn         int                `json:"turn"`
	EndTurn      bool               `json:"end_turn"`
	Command      core.Command       `json:"command"`
	Alternatives []core.Command     `json:"alternatives,omitempty"`
	Summary      string             `json:"summary"`
	Report       *ai.DecisionReport `json:"report,omitempty"`
	RolledBack   bool               `json:"rolled_back,omitempty"`
}

// toStruct converts v into a Struct through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// fromStruct decodes s into the Go value v points to.
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return fmt.Errorf("decode message: empty struct")
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// EncodeState converts a snapshot into its wire form.
func EncodeState(state *core.GameState) (*structpb.Struct, error) {
	if state == nil {
		return nil, fmt.Errorf("encode state: nil state")
	}
	return toStruct(state)
}

// DecodeState parses and sanity checks a snapshot received on the wire.
func DecodeState(s *structpb.Struct) (*core.GameState, error) {
	var state core.GameState
	if err := fromStruct(s, &state); err != nil {
		return nil, err
	}
	if err := checkState(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

func checkState(state *core.GameState) error {
	if !state.CurrentPlayer.Valid() {
		return fmt.Errorf("%w: current player %d", core.ErrInvalidPlayer, state.CurrentPlayer)
	}
	if state.TurnCount < 0 {
		return fmt.Errorf("negative turn %d", state.TurnCount)
	}
	seen := make(map[string]bool)
	for p := range state.Players {
		for _, u := range state.Players[p].Units {
			if u.ID == "" {
				return fmt.Errorf("unit without id owned by %s", core.PlayerID(p))
			}
			if seen[u.ID] {
				return fmt.Errorf("duplicate unit id %q", u.ID)
			}
			seen[u.ID] = true
			if !u.IsDead && !u.Pos.InBounds() {
				return fmt.Errorf("unit %q out of bounds at %s", u.ID, u.Pos)
			}
		}
	}
	return nil
}
