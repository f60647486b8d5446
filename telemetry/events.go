// Package telemetry provides performance, flock statistics, metrics and
// run output for the simulation.
package telemetry

// EventType identifies control events.
type EventType string

const (
	EventDriveEnabled  EventType = "drive_enabled"
	EventDriveDisabled EventType = "drive_disabled"
	EventModelReloaded EventType = "model_reloaded"
	EventReloadFailed  EventType = "reload_failed"
	EventRebuildFailed EventType = "rebuild_failed"
)

// Event is one control change: a drive toggle or a model reload.
type Event struct {
	Tick    int32     `csv:"tick"`
	Type    EventType `csv:"type"`
	Subject string    `csv:"subject"` // drive or model name
	Detail  string    `csv:"detail"`
}

// NewDriveEvent records a drive toggle.
func NewDriveEvent(tick int32, drive string, enabled bool) Event {
	t := EventDriveDisabled
	if enabled {
		t = EventDriveEnabled
	}
	return Event{Tick: tick, Type: t, Subject: drive}
}

// NewReloadEvent records a model reload; a non-nil err marks it failed.
func NewReloadEvent(tick int32, model string, err error) Event {
	if err != nil {
		return Event{Tick: tick, Type: EventReloadFailed, Subject: model, Detail: err.Error()}
	}
	return Event{Tick: tick, Type: EventModelReloaded, Subject: model}
}
