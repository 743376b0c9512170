// Package dragdrop tracks one in-progress drag gesture over a trip timeline.
//
// A Machine is a plain value owned by whoever coordinates the trip; it holds
// no timers and never blocks. Callers pass the current time in.
package dragdrop

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
)

// DefaultFrame is one animation frame at 60 Hz.
const DefaultFrame = 16 * time.Millisecond

type Reason string

const (
	ReasonEscape   Reason = "escape"
	ReasonOutside  Reason = "outside"
	ReasonWatchdog Reason = "watchdog"
	ReasonError    Reason = "error"
	ReasonReplaced Reason = "replaced"
)

// ParseReason maps client supplied reasons; anything unknown counts as escape.
func ParseReason(s string) Reason {
	switch r := Reason(s); r {
	case ReasonEscape, ReasonOutside, ReasonWatchdog, ReasonError:
		return r
	}
	return ReasonEscape
}

// Hover is one pointer position over the timeline. Visual is the slot the UI
// highlights; Target is the slot handed to the resolver.
type Hover struct {
	Day    string
	Visual int
	Target int
}

// Drop is what the resolver needs once a drop has been accepted.
type Drop struct {
	ID          string
	SourceDay   string
	SourceIndex int
	TargetDay   string
	TargetIndex int
}

type HoverResult struct {
	Applied  bool // state changed now
	Deferred bool // kept as the pending frame
}

type Machine struct {
	phase       domain.DragPhase
	item        string
	sourceDay   string
	sourceIndex int
	hover       *Hover
	pending     *Hover
	frame       time.Duration
	limiter     *rate.Limiter
}

func New(frame time.Duration) *Machine {
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &Machine{phase: domain.PhaseIdle, frame: frame}
}

func (m *Machine) Phase() domain.DragPhase { return m.phase }

func (m *Machine) Frame() time.Duration { return m.frame }

func (m *Machine) Active() bool { return m.phase != domain.PhaseIdle }

// Begin starts dragging id, which sits at index within sourceDay. It is
// refused while a drop is being processed. A drag that never ended is
// replaced; the returned flag reports that.
func (m *Machine) Begin(id, sourceDay string, index int) (replaced bool, err error) {
	if m.phase == domain.PhaseDropping {
		return false, domain.ErrDropInFlight
	}
	replaced = m.phase != domain.PhaseIdle
	m.clear()
	m.phase = domain.PhaseDragging
	m.item = id
	m.sourceDay = sourceDay
	m.sourceIndex = index
	m.limiter = rate.NewLimiter(rate.Every(m.frame), 1)
	return replaced, nil
}

// Hover records the pointer over day at visualIndex. Updates are limited to
// one per frame; an update arriving early becomes the pending frame and
// replaces any earlier pending one.
func (m *Machine) Hover(day string, visualIndex int, now time.Time) (HoverResult, error) {
	switch m.phase {
	case domain.PhaseDragging, domain.PhaseHovering:
	case domain.PhaseDropping:
		return HoverResult{}, domain.ErrDropInFlight
	default:
		return HoverResult{}, domain.ErrNotDragging
	}
	h := m.resolveHover(day, visualIndex)
	if !m.limiter.AllowN(now, 1) {
		m.pending = &h
		return HoverResult{Deferred: true}, nil
	}
	m.apply(h)
	return HoverResult{Applied: true}, nil
}

// HasPending reports whether a throttled hover is waiting for the next frame.
func (m *Machine) HasPending() bool { return m.pending != nil }

// FlushPending applies the pending hover, if any.
func (m *Machine) FlushPending(now time.Time) bool {
	if m.pending == nil || (m.phase != domain.PhaseDragging && m.phase != domain.PhaseHovering) {
		return false
	}
	m.limiter.AllowN(now, 1)
	m.apply(*m.pending)
	return true
}

// BeginDrop moves to DROPPING. A negative targetIndex drops on the hovered
// slot (keyboard confirm); an empty day means the hovered day. Without any
// hover the item is dropped back where it came from.
func (m *Machine) BeginDrop(day string, targetIndex int) (Drop, error) {
	switch m.phase {
	case domain.PhaseDropping:
		return Drop{}, domain.ErrDropInFlight
	case domain.PhaseIdle:
		return Drop{}, domain.ErrNotDragging
	}
	if m.pending != nil {
		m.apply(*m.pending)
	}

	d := Drop{ID: m.item, SourceDay: m.sourceDay, SourceIndex: m.sourceIndex, TargetDay: day, TargetIndex: targetIndex}
	if d.TargetDay == "" {
		d.TargetDay = m.sourceDay
		if m.hover != nil {
			d.TargetDay = m.hover.Day
		}
	}
	if d.TargetIndex < 0 {
		switch {
		case m.hover != nil && m.hover.Day == d.TargetDay:
			d.TargetIndex = m.hover.Target
		case d.TargetDay == m.sourceDay:
			d.TargetIndex = m.sourceIndex
		default:
			d.TargetIndex = 0
		}
	}
	m.phase = domain.PhaseDropping
	return d, nil
}

// Confirm is the keyboard equivalent of dropping on the hovered slot.
func (m *Machine) Confirm() (Drop, error) { return m.BeginDrop("", -1) }

// Finish ends a processed drop.
func (m *Machine) Finish() { m.clear() }

// Reset forces the machine back to IDLE from any phase and returns the phase
// it was in.
func (m *Machine) Reset() domain.DragPhase {
	prev := m.phase
	m.clear()
	return prev
}

// TargetIndex converts a visual slot to a resolution slot. Within the source
// day the dragged item is hidden from the visual list, so slots at or past
// its position shift by one.
func (m *Machine) TargetIndex(day string, visual int) int {
	if visual < 0 {
		visual = 0
	}
	if day == m.sourceDay && visual >= m.sourceIndex {
		return visual + 1
	}
	return visual
}

func (m *Machine) State() domain.DragState {
	s := domain.DragState{
		Phase:            m.phase,
		DraggedItem:      m.item,
		SourceDay:        m.sourceDay,
		SourceIndex:      m.sourceIndex,
		IsDragging:       m.phase != domain.PhaseIdle,
		IsProcessingDrop: m.phase == domain.PhaseDropping,
	}
	if s.IsDragging {
		s.DimmedItem = m.item
	}
	if m.hover != nil {
		visual, target := m.hover.Visual, m.hover.Target
		s.DragOverDay = m.hover.Day
		s.DragOverIndex = &visual
		s.DropTargetIndex = &target
	}
	return s
}

func (m *Machine) resolveHover(day string, visual int) Hover {
	if visual < 0 {
		visual = 0
	}
	return Hover{Day: day, Visual: visual, Target: m.TargetIndex(day, visual)}
}

func (m *Machine) apply(h Hover) {
	m.hover = &h
	m.pending = nil
	m.phase = domain.PhaseHovering
}

func (m *Machine) clear() {
	m.phase = domain.PhaseIdle
	m.item = ""
	m.sourceDay = ""
	m.sourceIndex = 0
	m.hover = nil
	m.pending = nil
	m.limiter = nil
}
