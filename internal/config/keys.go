package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gloski/cli/internal/util"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "default-host").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Save).
	Set func(cfg *Config, value string)

	// Validate, when non-nil, rejects bad values before Set runs.
	Validate func(value string) error
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "default-host",
		Description: "Profile used when a host argument is omitted",
		Get:         func(cfg *Config) string { return cfg.DefaultHost },
		Set:         func(cfg *Config, v string) { cfg.DefaultHost = v },
	},
	{
		Name:        "process-limit",
		Description: "Rows shown by ps when --limit is not given",
		Get:         func(cfg *Config) string { return intValue(cfg.ProcessLimit) },
		Set:         func(cfg *Config, v string) { cfg.ProcessLimit, _ = strconv.Atoi(v) },
		Validate:    positiveInt,
	},
	{
		Name:        "stats-window",
		Description: "History window in minutes for stats --history",
		Get:         func(cfg *Config) string { return intValue(cfg.StatsWindow) },
		Set:         func(cfg *Config, v string) { cfg.StatsWindow, _ = strconv.Atoi(v) },
		Validate:    positiveInt,
	},
	{
		Name:        "hetzner-server-type",
		Description: "Server type used by provision hetzner (e.g. cx22)",
		Get:         func(cfg *Config) string { return cfg.HetznerServerType },
		Set:         func(cfg *Config, v string) { cfg.HetznerServerType = v },
	},
	{
		Name:        "hetzner-location",
		Description: "Location used by provision hetzner (e.g. fsn1)",
		Get:         func(cfg *Config) string { return cfg.HetznerLocation },
		Set:         func(cfg *Config, v string) { cfg.HetznerLocation = v },
	},
}

func intValue(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func positiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("config: %q is not a positive integer", value)
	}
	return nil
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := util.NormalizeKey(name)
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
