package models

import "time"

// Child is the patient record sessions are booked for. Children belong to
// exactly one parent account.
type Child struct {
	ID          int64     `json:"id"`
	ParentID    int64     `json:"parent_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Concerns    *[]string `json:"concerns"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
