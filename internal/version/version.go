// Package version exposes the build version compiled into the binary.
package version

import (
	_ "embed"
	"encoding/json"
	"log"
)

//go:embed version.json
var raw []byte

type Info struct {
	Version string `json:"version"`
}

// Load decodes the embedded version file. A malformed file yields the
// zero version rather than failing startup.
func Load() Info {
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil || info.Version == "" {
		log.Printf("warning: could not parse embedded version: %v", err)
		return Info{Version: "0.0.0"}
	}
	return info
}
