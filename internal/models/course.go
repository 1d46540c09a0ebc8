package models

// Course is a catalog entry fetched from the core API. Prices are whole
// Naira, no minor units. Immutable once cached.
type Course struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Price    int64    `json:"price"`
	PriceUSD *float64 `json:"price_usd,omitempty"`
}

// CourseCount reports enrollment occupancy for a course.
type CourseCount struct {
	CourseID    string `json:"courseId"`
	Enrollments int    `json:"enrollments"`
	Seats       int    `json:"seats"`
}
