package kafka

import (
	"sort"
	"strings"

	"github.com/five82/dbspctl/dbsp"
)

// Topics returns the sorted, de-duplicated Kafka topics referenced by the
// kafka transports in endpoints. Input endpoints list theirs under "topics",
// outputs under "topic".
func Topics(endpoints ...map[string]dbsp.EndpointConfig) []string {
	seen := make(map[string]struct{})
	for _, group := range endpoints {
		for _, ep := range group {
			if ep.Transport.Name != "kafka" {
				continue
			}
			for _, t := range topicValues(ep.Transport.Config) {
				if t = strings.TrimSpace(t); t != "" {
					seen[t] = struct{}{}
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func topicValues(cfg map[string]any) []string {
	var out []string
	switch v := cfg["topics"].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		out = append(out, v)
	}
	if s, ok := cfg["topic"].(string); ok {
		out = append(out, s)
	}
	return out
}
