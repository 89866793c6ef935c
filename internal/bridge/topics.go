package bridge

import (
	"fmt"
	"strings"
)

// Topics builds topic names under a prefix.
type Topics struct {
	Prefix string
}

// State is the retained state topic of one item,
// e.g. openmotics/21/output/18.
func (t Topics) State(installationID int, kind string, id int) string {
	return fmt.Sprintf("%s/%s/%d", t.Installation(installationID), kind, id)
}

// Installation is the topic subtree of one installation.
func (t Topics) Installation(installationID int) string {
	return fmt.Sprintf("%s/%d", t.prefix(), installationID)
}

// Status is the bridge's own online/offline topic.
func (t Topics) Status() string {
	return t.prefix() + "/bridge/status"
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// Kind maps an event type such as OUTPUT_CHANGE to its topic segment "output".
func Kind(eventType string) string {
	k := strings.ToLower(strings.TrimSuffix(eventType, "_CHANGE"))
	k = strings.ReplaceAll(k, "_", "-")
	if k == "" {
		return "unknown"
	}
	return k
}
