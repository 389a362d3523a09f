package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
)

// ErrNoCandidate is returned when a selection names an index outside the
// box's current candidate list.
var ErrNoCandidate = errors.New("no candidate at that index")

// boxSearch is the debounce state of one search box. armSeq identifies the
// latest armed schedule, so a timer that fires after being replaced is
// ignored even when Stop came too late. generation identifies the latest
// issued request; a response is applied only while its generation is still
// current, so the last issued request wins no matter in which order
// responses arrive.
type boxSearch struct {
	query      string
	loading    bool
	warning    string
	candidates []models.Candidate
	armSeq     uint64
	generation uint64
	timer      *time.Timer
}

// invalidate orphans any pending schedule and in-flight request.
func (b *boxSearch) invalidate() {
	b.armSeq++
	b.generation++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *boxSearch) reset() {
	b.invalidate()
	b.query = ""
	b.loading = false
	b.warning = ""
	b.candidates = nil
}

func (b *boxSearch) view() models.SearchView {
	return models.SearchView{
		Query:      b.query,
		Loading:    b.loading,
		Candidates: append([]models.Candidate(nil), b.candidates...),
		Warning:    b.warning,
	}
}

// SetSearchText feeds one text change into a search box. The geocoder is
// only asked once the text has been quiet for the configured debounce
// interval; typing again before that replaces the pending schedule.
// Blanking the text cancels everything and clears the box.
func (s *Session) SetSearchText(box models.SearchBox, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	b, ok := s.searches[box]
	if !ok {
		return fmt.Errorf("unknown search box: %q", box)
	}
	b.query = text

	if strings.TrimSpace(text) == "" {
		b.invalidate()
		b.loading = false
		b.warning = ""
		b.candidates = nil
		s.touchLocked()
		s.notifyLocked()
		return nil
	}

	b.armSeq++
	seq := b.armSeq
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(s.settings.SearchDebounce, func() {
		s.fireSearch(box, seq)
	})

	s.touchLocked()
	s.notifyLocked()
	return nil
}

// fireSearch runs when a box's debounce timer expires: it stamps the next
// request generation, issues the geocode request off the lock and applies
// the response only if no newer request or invalidation happened meanwhile.
func (s *Session) fireSearch(box models.SearchBox, seq uint64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	b := s.searches[box]
	if seq != b.armSeq {
		// This schedule was replaced after the timer had already fired.
		s.mu.Unlock()
		return
	}
	b.timer = nil

	query := strings.TrimSpace(b.query)
	if query == "" {
		s.mu.Unlock()
		return
	}

	b.generation++
	gen := b.generation
	b.loading = true
	s.notifyLocked()
	s.mu.Unlock()

	go func() {
		places, err := s.deps.Geocoder.Search(context.Background(), query)

		var candidates []models.Candidate
		if err == nil {
			candidates = make([]models.Candidate, 0, len(places))
			for _, p := range places {
				candidates = append(candidates, models.Candidate{
					Name:      p.Name,
					Address:   p.Label,
					Latitude:  p.Latitude,
					Longitude: p.Longitude,
				})
			}
			candidates = s.deps.Catalog.Match(context.Background(), candidates)
			if len(candidates) > s.settings.MaxCandidates {
				candidates = candidates[:s.settings.MaxCandidates]
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != b.generation {
			recordStaleResult("search")
			return
		}

		b.loading = false
		if err != nil {
			// Previous candidates stay visible; the failure is only a warning.
			b.warning = "Search failed"
			s.deps.Logger.WithError(err).WithFields(logrus.Fields{
				"session_id": s.ID,
				"box":        string(box),
			}).Warn("Geocode search failed")
		} else {
			b.candidates = candidates
			b.warning = ""
		}

		s.touchLocked()
		s.notifyLocked()
	}()
}

// SelectCandidate assigns one of a box's current candidates to the slot the
// box belongs to and closes the dropdown. Selecting into the intermediate
// box requires both endpoints to exist.
func (s *Session) SelectCandidate(box models.SearchBox, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	b, ok := s.searches[box]
	if !ok {
		return fmt.Errorf("unknown search box: %q", box)
	}
	if index < 0 || index >= len(b.candidates) {
		return ErrNoCandidate
	}
	candidate := b.candidates[index]

	wp := waypointFromCandidate(candidate)
	var replaced *models.Waypoint
	switch box {
	case models.BoxStart:
		replaced = s.list.SetStart(wp)
	case models.BoxEnd:
		replaced = s.list.SetEnd(wp)
	case models.BoxIntermediate:
		if err := s.list.InsertIntermediate(wp, nil); err != nil {
			return err
		}
	}
	if replaced != nil {
		s.stopDragTimerLocked(replaced.LocalID)
	}

	b.invalidate()
	b.query = candidate.Name
	b.loading = false
	b.warning = ""
	b.candidates = nil

	s.maybeRecomputeLocked()
	s.touchLocked()
	s.notifyLocked()
	return nil
}
