// Package lifecycle holds the status transition table of an equipment unit.
package lifecycle

import (
	"errors"
	"fmt"
)

var ErrTransitionNotAllowed = errors.New("transition not allowed")

type Status string

const (
	StatusOnYard        Status = "ON_YARD"
	StatusReserved      Status = "RESERVED"
	StatusRented        Status = "RENTED"
	StatusInMaintenance Status = "IN_MAINTENANCE"
)

// Initial is the status of a newly created unit.
const Initial = StatusOnYard

type Event string

const (
	EventReserve             Event = "reserve"
	EventCancelReservation   Event = "cancel_reservation"
	EventBeginRental         Event = "begin_rental"
	EventBeginRentalDirect   Event = "begin_rental_direct"
	EventReturn              Event = "return"
	EventCompleteMaintenance Event = "complete_maintenance"
)

type edge struct {
	from  Status
	event Event
}

var transitions = map[edge]Status{
	{StatusOnYard, EventReserve}:                    StatusReserved,
	{StatusReserved, EventCancelReservation}:        StatusOnYard,
	{StatusReserved, EventBeginRental}:              StatusRented,
	{StatusOnYard, EventBeginRentalDirect}:          StatusRented,
	{StatusRented, EventReturn}:                     StatusInMaintenance,
	{StatusInMaintenance, EventCompleteMaintenance}: StatusOnYard,
}

// Next returns the status reached by applying ev in status from.
func Next(from Status, ev Event) (Status, error) {
	to, ok := transitions[edge{from, ev}]
	if !ok {
		return from, fmt.Errorf("%s is not allowed while %s: %w", ev, from, ErrTransitionNotAllowed)
	}
	return to, nil
}

// Allowed lists the events accepted in status s.
func Allowed(s Status) []Event {
	var out []Event
	for _, ev := range Events() {
		if _, ok := transitions[edge{s, ev}]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Events lists every event in a stable order.
func Events() []Event {
	return []Event{
		EventReserve,
		EventCancelReservation,
		EventBeginRental,
		EventBeginRentalDirect,
		EventReturn,
		EventCompleteMaintenance,
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusOnYard, StatusReserved, StatusRented, StatusInMaintenance:
		return true
	}
	return false
}

// HasRental reports whether the rental fields must be set in s.
func (s Status) HasRental() bool {
	return s == StatusReserved || s == StatusRented
}
