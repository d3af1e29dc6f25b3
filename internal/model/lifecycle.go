package model

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition an event not allowed from the current status.
var ErrIllegalTransition = errors.New("illegal status transition")

type transitionKey[S ~string, E ~string] struct {
	from S
	ev   E
}

type transitionTable[S ~string, E ~string] map[transitionKey[S, E]]S

func (t transitionTable[S, E]) next(from S, ev E) (S, error) {
	to, ok := t[transitionKey[S, E]{from, ev}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, from)
	}
	return to, nil
}

// ── Shift ──

// ShiftStatus lifecycle of a shift.
type ShiftStatus string

const (
	ShiftScheduled ShiftStatus = "scheduled"
	ShiftCalledOut ShiftStatus = "called_out"
	ShiftCovered   ShiftStatus = "covered"
	ShiftNoShow    ShiftStatus = "no_show"
)

// ShiftEvent drives ShiftStatus.
type ShiftEvent string

const (
	ShiftEventCallout ShiftEvent = "callout"
	ShiftEventCover   ShiftEvent = "cover"
	ShiftEventRevert  ShiftEvent = "revert"
	ShiftEventNoShow  ShiftEvent = "no_show"
)

var shiftTransitions = transitionTable[ShiftStatus, ShiftEvent]{
	{ShiftScheduled, ShiftEventCallout}: ShiftCalledOut,
	{ShiftCalledOut, ShiftEventCover}:   ShiftCovered,
	{ShiftCalledOut, ShiftEventRevert}:  ShiftScheduled,
	{ShiftCovered, ShiftEventRevert}:    ShiftScheduled,
	{ShiftScheduled, ShiftEventNoShow}:  ShiftNoShow,
}

// Next returns the status after ev.
func (s ShiftStatus) Next(ev ShiftEvent) (ShiftStatus, error) {
	return shiftTransitions.next(s, ev)
}

// Active shifts count toward hours and double booking.
func (s ShiftStatus) Active() bool {
	return s == ShiftScheduled || s == ShiftCovered
}

// ActiveShiftStatuses for IN queries.
var ActiveShiftStatuses = []ShiftStatus{ShiftScheduled, ShiftCovered}

// ── Swap ──

// SwapStatus lifecycle of a shift swap.
type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapApproved  SwapStatus = "approved"
	SwapDenied    SwapStatus = "denied"
	SwapCancelled SwapStatus = "cancelled"
)

// SwapEvent drives SwapStatus.
type SwapEvent string

const (
	SwapEventAccept  SwapEvent = "accept"
	SwapEventApprove SwapEvent = "approve"
	SwapEventDeny    SwapEvent = "deny"
	SwapEventCancel  SwapEvent = "cancel"
)

var swapTransitions = transitionTable[SwapStatus, SwapEvent]{
	{SwapPending, SwapEventAccept}:   SwapAccepted,
	{SwapAccepted, SwapEventApprove}: SwapApproved,
	{SwapPending, SwapEventDeny}:     SwapDenied,
	{SwapAccepted, SwapEventDeny}:    SwapDenied,
	{SwapPending, SwapEventCancel}:   SwapCancelled,
	{SwapAccepted, SwapEventCancel}:  SwapCancelled,
}

// Next returns the status after ev.
func (s SwapStatus) Next(ev SwapEvent) (SwapStatus, error) {
	return swapTransitions.next(s, ev)
}

// Open swaps still hold their shifts.
func (s SwapStatus) Open() bool {
	return s == SwapPending || s == SwapAccepted
}

// OpenSwapStatuses for IN queries.
var OpenSwapStatuses = []SwapStatus{SwapPending, SwapAccepted}

// ── Schedule ──

// ScheduleStatus lifecycle of a weekly schedule.
type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "draft"
	SchedulePublished ScheduleStatus = "published"
	ScheduleArchived  ScheduleStatus = "archived"
)

// ScheduleEvent drives ScheduleStatus.
type ScheduleEvent string

const (
	ScheduleEventPublish   ScheduleEvent = "publish"
	ScheduleEventUnpublish ScheduleEvent = "unpublish"
	ScheduleEventArchive   ScheduleEvent = "archive"
)

var scheduleTransitions = transitionTable[ScheduleStatus, ScheduleEvent]{
	{ScheduleDraft, ScheduleEventPublish}:       SchedulePublished,
	{SchedulePublished, ScheduleEventUnpublish}: ScheduleDraft,
	{ScheduleDraft, ScheduleEventArchive}:       ScheduleArchived,
	{SchedulePublished, ScheduleEventArchive}:   ScheduleArchived,
}

// Next returns the status after ev.
func (s ScheduleStatus) Next(ev ScheduleEvent) (ScheduleStatus, error) {
	return scheduleTransitions.next(s, ev)
}

// ── Time off ──

// TimeOffStatus lifecycle of a time-off request.
type TimeOffStatus string

const (
	TimeOffPending   TimeOffStatus = "pending"
	TimeOffApproved  TimeOffStatus = "approved"
	TimeOffDenied    TimeOffStatus = "denied"
	TimeOffCancelled TimeOffStatus = "cancelled"
)

// TimeOffEvent drives TimeOffStatus.
type TimeOffEvent string

const (
	TimeOffEventApprove TimeOffEvent = "approve"
	TimeOffEventDeny    TimeOffEvent = "deny"
	TimeOffEventCancel  TimeOffEvent = "cancel"
)

var timeOffTransitions = transitionTable[TimeOffStatus, TimeOffEvent]{
	{TimeOffPending, TimeOffEventApprove}: TimeOffApproved,
	{TimeOffPending, TimeOffEventDeny}:    TimeOffDenied,
	{TimeOffPending, TimeOffEventCancel}:  TimeOffCancelled,
	{TimeOffApproved, TimeOffEventCancel}: TimeOffCancelled,
}

// Next returns the status after ev.
func (s TimeOffStatus) Next(ev TimeOffEvent) (TimeOffStatus, error) {
	return timeOffTransitions.next(s, ev)
}
