package model

import (
	"strings"
	"unicode/utf8"
)

// Longest theater name and address accepted, matching the column widths.
const (
	MaxTheaterNameLength    = 120
	MaxTheaterAddressLength = 512
)

// Theater represents a row in the `theaters` table.  ManagerID is nil
// when no manager is assigned.  A manager reference is validated when it
// is written; if the user is later deleted the reference is cleared.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name, at most 120 characters.
//  Address   – street address, at most 512 characters.
//  SeatCount – number of seats, always positive.
//  ManagerID – users.id of the theater manager (nullable).
type Theater struct {
	ID        int64  // theaters.id
	Name      string // theaters.name
	Address   string // theaters.address
	SeatCount int    // theaters.seat_count
	ManagerID *int64 // theaters.manager_id (nullable)
}

// Validate checks the field invariants of a theater.  The manager
// reference is not checked here because it needs the credential store.
func (t Theater) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Message: "Theater name cannot be empty."}
	}
	if utf8.RuneCountInString(t.Name) > MaxTheaterNameLength {
		return &ValidationError{Field: "name", Message: "Theater name exceeds 120 characters."}
	}
	if strings.TrimSpace(t.Address) == "" {
		return &ValidationError{Field: "address", Message: "Theater address is required."}
	}
	if utf8.RuneCountInString(t.Address) > MaxTheaterAddressLength {
		return &ValidationError{Field: "address", Message: "Theater address exceeds 512 characters."}
	}
	if t.SeatCount <= 0 {
		return &ValidationError{Field: "seatCount", Message: "Seat count must be greater than zero."}
	}
	return nil
}

// ManagedBy reports whether userID is the theater's manager.
func (t Theater) ManagedBy(userID int64) bool {
	return t.ManagerID != nil && *t.ManagerID == userID
}
