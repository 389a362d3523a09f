package editor

import (
	"errors"
	"fmt"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
)

var (
	// ErrEndpointsRequired is returned when an intermediate stop is added
	// before both the start and the end slot exist.
	ErrEndpointsRequired = errors.New("start and end stops must be set before adding intermediates")

	// ErrEndpointNotRemovable is returned when a delete targets the start
	// or end slot. Endpoints are replaced, never removed.
	ErrEndpointNotRemovable = errors.New("start and end stops can only be replaced, not removed")
)

// StopList is the ordered waypoint list of one editing session. Position 0
// is the start, the last position is the end, everything between is an
// intermediate stop. The list is not safe for concurrent use; the owning
// session serializes access.
type StopList struct {
	stops  []*models.Waypoint
	focus  models.Focus
	nextID int
}

// NewStopList returns an empty list awaiting its start stop.
func NewStopList() *StopList {
	return &StopList{focus: models.FocusAwaitingStart}
}

func (l *StopList) newLocalID() string {
	l.nextID++
	return fmt.Sprintf("wp-%d", l.nextID)
}

// SetStart places w at position 0, appending when the list is empty and
// replacing the current start otherwise. The first assignment advances the
// focus to the end slot. Returns the replaced waypoint, if any.
func (l *StopList) SetStart(w *models.Waypoint) *models.Waypoint {
	w.LocalID = l.newLocalID()

	var replaced *models.Waypoint
	if len(l.stops) == 0 {
		l.stops = append(l.stops, w)
	} else {
		replaced = l.stops[0]
		l.stops[0] = w
	}

	if l.focus == models.FocusAwaitingStart {
		l.focus = models.FocusAwaitingEnd
	}
	return replaced
}

// SetEnd places w at the last position. Until the list holds both
// endpoints the waypoint is appended, so the usual start-then-end flow
// grows the list to two entries; afterwards the current end is replaced.
// The first assignment advances the focus to intermediates. Returns the
// replaced waypoint, if any.
func (l *StopList) SetEnd(w *models.Waypoint) *models.Waypoint {
	w.LocalID = l.newLocalID()

	var replaced *models.Waypoint
	if len(l.stops) < 2 {
		l.stops = append(l.stops, w)
	} else {
		replaced = l.stops[len(l.stops)-1]
		l.stops[len(l.stops)-1] = w
	}

	if l.focus == models.FocusAwaitingEnd {
		l.focus = models.FocusAwaitingIntermediate
	}
	return replaced
}

// InsertIntermediate adds w between the endpoints. Without an explicit
// index it goes directly before the end; with one it goes after that
// position, clamped so the start stays first and the end stays last.
func (l *StopList) InsertIntermediate(w *models.Waypoint, afterIndex *int) error {
	if len(l.stops) < 2 {
		return ErrEndpointsRequired
	}
	w.LocalID = l.newLocalID()

	pos := len(l.stops) - 1
	if afterIndex != nil {
		pos = *afterIndex + 1
		if pos < 1 {
			pos = 1
		}
		if pos > len(l.stops)-1 {
			pos = len(l.stops) - 1
		}
	}

	l.stops = append(l.stops, nil)
	copy(l.stops[pos+1:], l.stops[pos:])
	l.stops[pos] = w
	return nil
}

// Remove deletes the waypoint with the given id and returns it. Unknown
// ids are a no-op. Removing the start or end slot is rejected.
func (l *StopList) Remove(localID string) (*models.Waypoint, error) {
	idx := l.indexOf(localID)
	if idx < 0 {
		return nil, nil
	}
	if idx == 0 || idx == len(l.stops)-1 {
		return nil, ErrEndpointNotRemovable
	}

	removed := l.stops[idx]
	l.stops = append(l.stops[:idx], l.stops[idx+1:]...)
	return removed, nil
}

// ReorderIntermediate moves the waypoint fromLocalID to the position of
// toLocalID. Both must currently be intermediates; otherwise, or when the
// ids are equal or unknown, nothing happens. The start and end positions
// are never touched by this operation. Reports whether the order changed.
func (l *StopList) ReorderIntermediate(fromLocalID, toLocalID string) bool {
	if fromLocalID == toLocalID {
		return false
	}
	from := l.indexOf(fromLocalID)
	to := l.indexOf(toLocalID)
	if !l.isIntermediate(from) || !l.isIntermediate(to) {
		return false
	}

	moved := l.stops[from]
	l.stops = append(l.stops[:from], l.stops[from+1:]...)
	l.stops = append(l.stops, nil)
	copy(l.stops[to+1:], l.stops[to:])
	l.stops[to] = moved
	return true
}

// UpdatePosition moves the waypoint to new coordinates without changing
// its identity or its place in the order. Returns nil for unknown ids.
func (l *StopList) UpdatePosition(localID string, lat, lng float64) *models.Waypoint {
	wp := l.Get(localID)
	if wp == nil {
		return nil
	}
	wp.Latitude = &lat
	wp.Longitude = &lng
	return wp
}

// Clear empties the list and returns the focus to the start slot.
func (l *StopList) Clear() {
	l.stops = nil
	l.focus = models.FocusAwaitingStart
}

// Get returns the waypoint with the given id, or nil.
func (l *StopList) Get(localID string) *models.Waypoint {
	if idx := l.indexOf(localID); idx >= 0 {
		return l.stops[idx]
	}
	return nil
}

// Stops exposes the underlying ordered list. Callers must treat it as
// read-only and must not hold it across session operations.
func (l *StopList) Stops() []*models.Waypoint {
	return l.stops
}

// Len returns the number of waypoints, resolved or not.
func (l *StopList) Len() int {
	return len(l.stops)
}

// Focus reports which slot the next map click targets.
func (l *StopList) Focus() models.Focus {
	return l.focus
}

// Resolved returns the waypoints eligible for route computation, in list
// order: those with coordinates and no pending reverse-geocode lookup.
func (l *StopList) Resolved() []*models.Waypoint {
	resolved := make([]*models.Waypoint, 0, len(l.stops))
	for _, wp := range l.stops {
		if wp.Resolved() {
			resolved = append(resolved, wp)
		}
	}
	return resolved
}

func (l *StopList) indexOf(localID string) int {
	for i, wp := range l.stops {
		if wp.LocalID == localID {
			return i
		}
	}
	return -1
}

func (l *StopList) isIntermediate(idx int) bool {
	return idx > 0 && idx < len(l.stops)-1
}
