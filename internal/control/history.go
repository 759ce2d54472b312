package control

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/vtx-control-core/internal/audit"
	"github.com/nerrad567/vtx-control-core/internal/settings"
	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// HistoryLimit is how many entries the retained history and audit
// documents carry.
const HistoryLimit = 20

// SettingsChange is one accepted desired-settings change.
type SettingsChange struct {
	ID        int64        `json:"id"`
	Settings  vtx.Settings `json:"settings"`
	Source    string       `json:"source"`
	ChangedAt string       `json:"changed_at"`
}

// History is the retained document of recent settings changes, newest
// first.
type History struct {
	Changes   []SettingsChange `json:"changes"`
	Timestamp string           `json:"timestamp"`
}

// AuditPage is the retained document of recent control requests, newest
// first.
type AuditPage struct {
	Entries   []audit.Entry `json:"entries"`
	Total     int           `json:"total"`
	Timestamp string        `json:"timestamp"`
}

func buildHistory(entries []settings.HistoryEntry, now time.Time) History {
	h := History{
		Changes:   make([]SettingsChange, 0, len(entries)),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	for _, e := range entries {
		h.Changes = append(h.Changes, SettingsChange{
			ID:        e.ID,
			Settings:  e.Settings,
			Source:    e.Source,
			ChangedAt: e.ChangedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return h
}

// PublishHistory publishes the retained settings history once.
func (s *Surface) PublishHistory() error {
	entries, err := s.deps.Settings.History(s.baseContext(), HistoryLimit)
	if err != nil {
		return fmt.Errorf("loading settings history: %w", err)
	}
	payload, err := json.Marshal(buildHistory(entries, s.now()))
	if err != nil {
		return fmt.Errorf("encoding settings history: %w", err)
	}
	return s.client.Publish(s.topics.VTXHistory(), payload, s.qos, true)
}

// PublishAudit publishes the retained page of recent control requests.
// It does nothing when no audit trail is configured.
func (s *Surface) PublishAudit() error {
	if s.deps.Audit == nil {
		return nil
	}
	page, err := s.deps.Audit.List(s.baseContext(), audit.Filter{Limit: HistoryLimit})
	if err != nil {
		return fmt.Errorf("listing audit entries: %w", err)
	}
	doc := AuditPage{
		Entries:   page.Entries,
		Total:     page.Total,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
	if doc.Entries == nil {
		doc.Entries = []audit.Entry{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding audit page: %w", err)
	}
	return s.client.Publish(s.topics.AuditRecent(), payload, s.qos, true)
}
