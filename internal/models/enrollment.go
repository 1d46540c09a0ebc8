package models

// EnrollmentDraft is the mutable state of one enrollment form session.
// Quantities map course IDs to requested quantities; zero means the course
// is not selected.
type EnrollmentDraft struct {
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Quantities map[string]int `json:"quantities"`
	Remember   bool           `json:"remember"`
}

// SelectedItem is derived from a draft and the catalog cache for every
// course with quantity > 0. Computed on demand, never persisted.
type SelectedItem struct {
	CourseID    string `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	Quantity    int    `json:"qty"`
}

// ContactProfile holds the non-sensitive contact details remembered between
// sessions when the draft's remember flag is set.
type ContactProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}
