package config

import (
	"fmt"
	"strings"
)

// CustomMapping names an extra temperature register. In the options file
// it is written as vid@tid="Name", several joined by ';'.
type CustomMapping struct {
	ID     string `json:"id"`
	VID    string `json:"vid"`
	TID    string `json:"tid"`
	Name   string `json:"name"`
	SafeID string `json:"safe_id"`
}

// Mappings returns the entries of tempMappings followed by those of
// vtempMappings.
func (c Config) Mappings() ([]CustomMapping, error) {
	temps, err := ParseMappings(c.TempMappings)
	if err != nil {
		return nil, fmt.Errorf("tempMappings: %w", err)
	}

	vtemps, err := ParseMappings(c.VTempMappings)
	if err != nil {
		return nil, fmt.Errorf("vtempMappings: %w", err)
	}

	return append(temps, vtemps...), nil
}

// ParseMappings parses a ';' separated list of vid@tid="Name" entries.
// Empty entries are skipped.
func ParseMappings(s string) ([]CustomMapping, error) {
	var out []CustomMapping

	for entry := range strings.SplitSeq(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, name, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q: missing '='", entry)
		}
		id = strings.TrimSpace(id)

		vid, tid, ok := strings.Cut(id, "@")
		if !ok || vid == "" || tid == "" {
			return nil, fmt.Errorf("entry %q: id must be vid@tid", entry)
		}

		out = append(out, CustomMapping{
			ID:     id,
			VID:    vid,
			TID:    tid,
			Name:   strings.TrimSpace(strings.ReplaceAll(name, `"`, "")),
			SafeID: strings.Replace(id, "@", "_", 1),
		})
	}

	return out, nil
}
