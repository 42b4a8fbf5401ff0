package balance

import (
	"os"
	"strconv"
)

const (
	TypeAnnual    = "ANNUAL"
	TypeSick      = "SICK"
	TypeCasual    = "CASUAL"
	TypeMaternity = "MATERNITY"
	TypePaternity = "PATERNITY"
	TypeUnpaid    = "UNPAID"
)

// LeaveTypes lists every category the suite recognises, in the order
// balances are reported.
var LeaveTypes = []string{
	TypeAnnual,
	TypeSick,
	TypeCasual,
	TypeMaternity,
	TypePaternity,
	TypeUnpaid,
}

// Allocations maps a leave type to its default yearly day allocation.
// Unknown types get zero days, so a request against an unrecognised type
// can never pass the availability check.
type Allocations map[string]int

func (a Allocations) DefaultFor(leaveType string) int {
	return a[leaveType]
}

// LoadAllocations builds the allocation table once at startup: compiled-in
// defaults, overridable per type via LEAVE_DEFAULT_<TYPE> env vars.
func LoadAllocations() Allocations {
	alloc := Allocations{
		TypeAnnual: 20,
		TypeSick:   10,
		TypeCasual: 5,
	}

	for _, leaveType := range LeaveTypes {
		raw := os.Getenv("LEAVE_DEFAULT_" + leaveType)
		if raw == "" {
			continue
		}
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			continue
		}
		alloc[leaveType] = days
	}

	return alloc
}
