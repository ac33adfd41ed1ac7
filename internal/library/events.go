package library

import "github.com/saveforge/backupcore/internal/model"

// LogEvent appends an event row and persists the index.
func (idx *Index) LogEvent(gameID string, eventType model.EventType, message string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.appendEventLocked(gameID, eventType, message)
	return idx.save()
}

// appendEventLocked appends to the ring, trimming the oldest entries once
// maxEventLogEntries is exceeded. Callers must hold idx.mu.
func (idx *Index) appendEventLocked(gameID string, eventType model.EventType, message string) {
	idx.events = append(idx.events, model.EventLog{
		ID:        newID(),
		GameID:    gameID,
		Type:      eventType,
		Message:   message,
		CreatedAt: nowUTC(),
	})
	if len(idx.events) > maxEventLogEntries {
		idx.events = idx.events[len(idx.events)-maxEventLogEntries:]
	}
}

// recentEventsLocked returns the most recent n events for gameID, newest
// first. Callers must hold idx.mu.
func (idx *Index) recentEventsLocked(gameID string, n int) []model.EventLog {
	var matching []model.EventLog
	for i := len(idx.events) - 1; i >= 0 && len(matching) < n; i-- {
		if idx.events[i].GameID == gameID {
			matching = append(matching, idx.events[i])
		}
	}
	return matching
}
