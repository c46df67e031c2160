package service

import "CyMarker/internal/realtime"

// Notifier — получатель событий изменения. *realtime.Hub (в том числе nil)
// удовлетворяет интерфейсу.
type Notifier interface {
	EmitSaved(s realtime.Saved)
	EmitRemoved(r realtime.Removed, markerID string)
}
