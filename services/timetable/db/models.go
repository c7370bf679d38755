package db

import "database/sql"

type Term struct {
	ID         int64
	ExternalID string
	Name       string
}

type Course struct {
	ID      int64
	Subject string
	Number  string
	Title   sql.NullString
}

type Offering struct {
	ID       int64
	CourseID int64
	TermID   int64
}

type Section struct {
	ID          int64
	OfferingID  int64
	Component   string
	SectionCode string
	ClassNumber sql.NullString
	Delivery    sql.NullString
	BlockKey    sql.NullString
}

type Meeting struct {
	ID           int64
	SectionID    int64
	DayOfWeek    int64
	StartMinutes int64
	EndMinutes   int64
}
