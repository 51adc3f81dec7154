// Package docs carries the built-in help topics served by `refero docs`.
// Each topic is a markdown file compiled into the binary, so help works
// offline and cannot drift from the installed version.
package docs

import (
	"embed"
	"path"
	"sort"
	"strings"
)

//go:embed content/*.md
var topicFS embed.FS

// Topics lists the available topic names, sorted.
func Topics() []string {
	entries, err := topicFS.ReadDir("content")
	if err != nil {
		return nil
	}
	topics := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".md"); ok && name != "" {
			topics = append(topics, name)
		}
	}
	sort.Strings(topics)
	return topics
}

// Get returns the markdown body for a topic, matching case-insensitively.
func Get(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return "", false
	}
	b, err := topicFS.ReadFile(path.Join("content", topic+".md"))
	if err != nil {
		return "", false
	}
	return string(b), true
}
