// Package save implements JSON serialization and deserialization of a
// session: the world snapshot, the change history, and the RNG stream
// position. Field names are stable so external tooling can read saves.
package save

import (
	"encoding/json"

	"github.com/nathoo/fablecore/engine/state"
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version     string         `json:"version"`
	Game        string         `json:"game"`
	RNGSeed     int64          `json:"rng_seed"`
	RNGPosition int64          `json:"rng_position"`
	World       state.Snapshot `json:"world"`
}

// Save serializes a session to JSON bytes.
func Save(w *state.World, defs *state.Defs, rngSeed, rngPosition int64) ([]byte, error) {
	data := SaveData{
		Version:     defs.Game.Version,
		Game:        defs.Game.Title,
		RNGSeed:     rngSeed,
		RNGPosition: rngPosition,
		World:       w.Export(),
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}

// Apply restores loaded save data onto a world.
func Apply(w *state.World, sd *SaveData) {
	w.Restore(sd.World)
}
