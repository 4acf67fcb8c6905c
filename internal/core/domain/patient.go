package domain

import "time"

// PatientProfile is the clinical profile record paired with every PATIENT
// account. It is created in the same transaction as the account at
// registration time; its further lifecycle (visits, records) is owned by the
// clinical modules.
type PatientProfile struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	ContactNumber string     `json:"contactNumber"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	Address       string     `json:"address,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
