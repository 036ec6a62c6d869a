package models

import (
	"math"
	"time"
)

// NotAvailable is shown for any field the records API could not supply.
const NotAvailable = "N/A"

// PlaceholderCourse fills the course line; the records API exposes no course field.
const PlaceholderCourse = "Computer Science"

// CGPASource records where a CGPA value came from.
type CGPASource string

const (
	CGPASourceUpstream  CGPASource = "upstream"
	CGPASourceSynthetic CGPASource = "synthetic"
)

// CGPA bounds.
const (
	CGPAMax          = 5.0
	SyntheticCGPAMin = 2.4
	SyntheticCGPAMax = 4.99
)

// CGPA carries the grade point average together with its provenance.
type CGPA struct {
	Value  float64    `json:"value"`
	Source CGPASource `json:"source"`
}

// Synthetic reports whether the value is a placeholder rather than upstream data.
func (c CGPA) Synthetic() bool {
	return c.Source == CGPASourceSynthetic
}

// Stars maps the CGPA onto a 0..max star rating.
func (c CGPA) Stars(max int) int {
	stars := int(math.Round(c.Value / CGPAMax * float64(max)))
	if stars < 0 {
		return 0
	}
	if stars > max {
		return max
	}
	return stars
}

// Credentials are forwarded to the records API and never retained.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session ties an upstream bearer token to the identifiers used for lookups.
type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"-"`
	UserID       string    `json:"user_id"`
	DepartmentID string    `json:"department_id"`
	FacultyID    string    `json:"faculty_id"`
	LevelID      string    `json:"level_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// StudentRecord is the display-ready card content.
type StudentRecord struct {
	Name            string `json:"name"`
	MatriculationID string `json:"matriculation_id"`
	Course          string `json:"course"`
	Department      string `json:"department"`
	Faculty         string `json:"faculty"`
	Level           string `json:"level"`
	CGPA            CGPA   `json:"cgpa"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
}

// QRPayload is the JSON embedded in the back face QR code.
type QRPayload struct {
	Name          string  `json:"name"`
	ID            string  `json:"id"`
	Course        string  `json:"course"`
	Department    string  `json:"department"`
	Faculty       string  `json:"faculty"`
	Level         string  `json:"level"`
	CGPA          float64 `json:"cgpa"`
	CGPASynthetic bool    `json:"cgpa_synthetic"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
}

// QRPayload projects the record onto the QR contents.
func (r StudentRecord) QRPayload() QRPayload {
	return QRPayload{
		Name:          r.Name,
		ID:            r.MatriculationID,
		Course:        r.Course,
		Department:    r.Department,
		Faculty:       r.Faculty,
		Level:         r.Level,
		CGPA:          r.CGPA.Value,
		CGPASynthetic: r.CGPA.Synthetic(),
		Email:         r.Email,
		Phone:         r.Phone,
	}
}

// Face names one side of the card.
type Face string

const (
	FaceFront Face = "front"
	FaceBack  Face = "back"
)

// Filename is the download name used when exporting the face.
func (f Face) Filename() string {
	return "student_" + string(f) + ".png"
}

// Valid reports whether f names a card face.
func (f Face) Valid() bool {
	return f == FaceFront || f == FaceBack
}
