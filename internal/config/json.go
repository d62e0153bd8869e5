package config

import (
	"encoding/json"
	"os"

	"github.com/credvault/credvault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty fields
// leave the corresponding Config values untouched, so a partial file only
// overrides what it names.
type JsonConfig struct {
	Driver      string `json:"driver"`
	DatabaseDSN string `json:"database_dsn"`
	LockFile    string `json:"lock_file"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given, nothing is loaded. Intended usage is defaults -> parseJson
// -> parseFlags, where later stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Driver != "" {
		cfg.Driver = jc.Driver
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.LockFile != "" {
		cfg.LockFile = jc.LockFile
	}
}
