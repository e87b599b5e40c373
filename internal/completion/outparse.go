package completion

import (
	"encoding/json"
	"strings"
)

type jsonCandidate struct {
	Value       string `json:"Value"`
	Display     string `json:"Display"`
	Description string `json:"Description"`
}

// ParseCommandOutput turns external completion command output into
// candidates. A JSON array (of strings or of Value/Display/Description
// objects) is accepted whole; anything else parses line by line, with an
// optional tab-separated description per line.
func ParseCommandOutput(output string) []Candidate {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var values []string
		if err := json.Unmarshal([]byte(trimmed), &values); err == nil {
			candidates := make([]Candidate, 0, len(values))
			for _, v := range values {
				candidates = append(candidates, Candidate{Value: v})
			}
			return candidates
		}

		var objects []jsonCandidate
		if err := json.Unmarshal([]byte(trimmed), &objects); err == nil {
			candidates := make([]Candidate, 0, len(objects))
			for _, o := range objects {
				candidates = append(candidates, Candidate{
					Value:       o.Value,
					Display:     o.Display,
					Description: o.Description,
				})
			}
			return candidates
		}
	}

	var candidates []Candidate
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value, description, _ := strings.Cut(line, "\t")
		candidates = append(candidates, Candidate{
			Value:       value,
			Description: description,
		})
	}
	return candidates
}
