package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createTerm = `
INSERT INTO terms (external_id, name)
VALUES (?, ?)
ON CONFLICT (external_id) DO UPDATE SET name = excluded.name
`

type CreateTermParams struct {
	ExternalID string
	Name       string
}

func (q *Queries) CreateTerm(ctx context.Context, arg CreateTermParams) error {
	_, err := q.db.ExecContext(ctx, createTerm, arg.ExternalID, arg.Name)
	return err
}

const getTermID = `
SELECT id FROM terms WHERE external_id = ?
`

func (q *Queries) GetTermID(ctx context.Context, externalID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getTermID, externalID)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const upsertCourse = `
INSERT INTO courses (subject, number, title)
VALUES (?, ?, ?)
ON CONFLICT (subject, number) DO UPDATE SET title = excluded.title
`

type UpsertCourseParams struct {
	Subject string
	Number  string
	Title   sql.NullString
}

func (q *Queries) UpsertCourse(ctx context.Context, arg UpsertCourseParams) error {
	_, err := q.db.ExecContext(ctx, upsertCourse, arg.Subject, arg.Number, arg.Title)
	return err
}

const getCourseID = `
SELECT id FROM courses WHERE subject = ? AND number = ?
`

type GetCourseIDParams struct {
	Subject string
	Number  string
}

func (q *Queries) GetCourseID(ctx context.Context, arg GetCourseIDParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, getCourseID, arg.Subject, arg.Number)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createOffering = `
INSERT INTO offerings (course_id, term_id)
VALUES (?, ?)
ON CONFLICT (course_id, term_id) DO NOTHING
`

type CreateOfferingParams struct {
	CourseID int64
	TermID   int64
}

func (q *Queries) CreateOffering(ctx context.Context, arg CreateOfferingParams) error {
	_, err := q.db.ExecContext(ctx, createOffering, arg.CourseID, arg.TermID)
	return err
}

const getOfferingID = `
SELECT id FROM offerings WHERE course_id = ? AND term_id = ?
`

type GetOfferingIDParams struct {
	CourseID int64
	TermID   int64
}

func (q *Queries) GetOfferingID(ctx context.Context, arg GetOfferingIDParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, getOfferingID, arg.CourseID, arg.TermID)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const upsertSection = `
INSERT INTO sections (offering_id, component, section_code, class_number, delivery, block_key)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (offering_id, component, section_code) DO UPDATE SET
    class_number = excluded.class_number,
    delivery = excluded.delivery,
    block_key = excluded.block_key
`

type UpsertSectionParams struct {
	OfferingID  int64
	Component   string
	SectionCode string
	ClassNumber sql.NullString
	Delivery    sql.NullString
	BlockKey    sql.NullString
}

func (q *Queries) UpsertSection(ctx context.Context, arg UpsertSectionParams) error {
	_, err := q.db.ExecContext(ctx, upsertSection,
		arg.OfferingID,
		arg.Component,
		arg.SectionCode,
		arg.ClassNumber,
		arg.Delivery,
		arg.BlockKey,
	)
	return err
}

const getSectionID = `
SELECT id FROM sections WHERE offering_id = ? AND component = ? AND section_code = ?
`

type GetSectionIDParams struct {
	OfferingID  int64
	Component   string
	SectionCode string
}

func (q *Queries) GetSectionID(ctx context.Context, arg GetSectionIDParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, getSectionID, arg.OfferingID, arg.Component, arg.SectionCode)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const upsertMeeting = `
INSERT INTO meetings (section_id, day_of_week, start_minutes, end_minutes)
VALUES (?, ?, ?, ?)
ON CONFLICT (section_id, day_of_week, start_minutes, end_minutes) DO NOTHING
`

type UpsertMeetingParams struct {
	SectionID    int64
	DayOfWeek    int64
	StartMinutes int64
	EndMinutes   int64
}

func (q *Queries) UpsertMeeting(ctx context.Context, arg UpsertMeetingParams) error {
	_, err := q.db.ExecContext(ctx, upsertMeeting,
		arg.SectionID,
		arg.DayOfWeek,
		arg.StartMinutes,
		arg.EndMinutes,
	)
	return err
}

const listCourses = `
SELECT id, subject, number, title FROM courses ORDER BY subject, number
`

func (q *Queries) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := q.db.QueryContext(ctx, listCourses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Course
	for rows.Next() {
		var i Course
		err := rows.Scan(&i.ID, &i.Subject, &i.Number, &i.Title)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listSchedule = `
SELECT
    c.subject,
    c.number,
    t.external_id,
    s.component,
    s.section_code,
    s.delivery,
    m.day_of_week,
    m.start_minutes,
    m.end_minutes
FROM meetings m
JOIN sections s ON s.id = m.section_id
JOIN offerings o ON o.id = s.offering_id
JOIN terms t ON t.id = o.term_id
JOIN courses c ON c.id = o.course_id
ORDER BY c.subject, c.number, s.component, s.section_code, m.day_of_week, m.start_minutes
`

type ListScheduleRow struct {
	Subject      string
	Number       string
	TermID       string
	Component    string
	SectionCode  string
	Delivery     sql.NullString
	DayOfWeek    int64
	StartMinutes int64
	EndMinutes   int64
}

func (q *Queries) ListSchedule(ctx context.Context) ([]ListScheduleRow, error) {
	rows, err := q.db.QueryContext(ctx, listSchedule)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListScheduleRow
	for rows.Next() {
		var i ListScheduleRow
		err := rows.Scan(
			&i.Subject,
			&i.Number,
			&i.TermID,
			&i.Component,
			&i.SectionCode,
			&i.Delivery,
			&i.DayOfWeek,
			&i.StartMinutes,
			&i.EndMinutes,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countCourses = `SELECT COUNT(*) FROM courses`

func (q *Queries) CountCourses(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCourses)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countOfferings = `SELECT COUNT(*) FROM offerings`

func (q *Queries) CountOfferings(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countOfferings)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countSections = `SELECT COUNT(*) FROM sections`

func (q *Queries) CountSections(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSections)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countMeetings = `SELECT COUNT(*) FROM meetings`

func (q *Queries) CountMeetings(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMeetings)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getSection = `
SELECT id, offering_id, component, section_code, class_number, delivery, block_key
FROM sections
WHERE offering_id = ? AND component = ? AND section_code = ?
`

type GetSectionParams struct {
	OfferingID  int64
	Component   string
	SectionCode string
}

func (q *Queries) GetSection(ctx context.Context, arg GetSectionParams) (Section, error) {
	row := q.db.QueryRowContext(ctx, getSection, arg.OfferingID, arg.Component, arg.SectionCode)
	var i Section
	err := row.Scan(
		&i.ID,
		&i.OfferingID,
		&i.Component,
		&i.SectionCode,
		&i.ClassNumber,
		&i.Delivery,
		&i.BlockKey,
	)
	return i, err
}
