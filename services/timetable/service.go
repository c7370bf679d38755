package timetable

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"mactimetable-backend/lib/telemetry"
	"mactimetable-backend/services/timetable/classdata"
	"mactimetable-backend/services/timetable/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = telemetry.Tracer("mactimetable.services.timetable")

type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

type IngestResult struct {
	Sections int64
	Meetings int64
}

type sectionKey struct {
	component string
	code      string
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IngestCourse writes one course's canonical records through the
// course -> offering -> section -> meeting dependency chain. Each step
// resolves the generated id its dependents need. Writes are idempotent
// across runs, conflict resolution happens on the natural keys. A
// failure aborts the remaining steps for this course only.
func (s Service) IngestCourse(ctx context.Context, termExternalID string, data *classdata.CourseData) (IngestResult, error) {
	ctx, span := tracer.Start(ctx, "IngestCourse")
	defer span.End()

	course := data.Course
	span.SetAttributes(
		attribute.String("subject", course.Subject),
		attribute.String("number", course.Number),
	)

	err := s.qry.UpsertCourse(ctx, db.UpsertCourseParams{
		Subject: course.Subject,
		Number:  course.Number,
		Title:   nullable(course.Title),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert course")
		return IngestResult{}, err
	}
	courseID, err := s.qry.GetCourseID(ctx, db.GetCourseIDParams{
		Subject: course.Subject,
		Number:  course.Number,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve course id")
		return IngestResult{}, err
	}

	// the term row is seeded out-of-band, its absence is a hard
	// precondition failure for this course
	termID, err := s.qry.GetTermID(ctx, termExternalID)
	if err != nil {
		err = fmt.Errorf("term %q is not seeded: %w", termExternalID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "term missing")
		return IngestResult{}, err
	}

	err = s.qry.CreateOffering(ctx, db.CreateOfferingParams{
		CourseID: courseID,
		TermID:   termID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create offering")
		return IngestResult{}, err
	}
	offeringID, err := s.qry.GetOfferingID(ctx, db.GetOfferingIDParams{
		CourseID: courseID,
		TermID:   termID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve offering id")
		return IngestResult{}, err
	}

	var result IngestResult

	// rebuilt fresh per course, meetings resolve their owning section
	// through it
	sectionIDs := map[sectionKey]int64{}

	for _, sec := range data.Sections {
		err := s.qry.UpsertSection(ctx, db.UpsertSectionParams{
			OfferingID:  offeringID,
			Component:   sec.Component,
			SectionCode: sec.Code,
			ClassNumber: nullable(sec.ClassNumber),
			Delivery:    nullable(sec.Delivery),
			BlockKey:    nullable(sec.BlockKey),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to upsert section")
			return result, err
		}
		id, err := s.qry.GetSectionID(ctx, db.GetSectionIDParams{
			OfferingID:  offeringID,
			Component:   sec.Component,
			SectionCode: sec.Code,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve section id")
			return result, err
		}
		sectionIDs[sectionKey{sec.Component, sec.Code}] = id
		result.Sections++
	}

	for _, m := range data.Meetings {
		sectionID, ok := sectionIDs[sectionKey{m.Component, m.SectionCode}]
		if !ok {
			// owning section never made it into this batch, the
			// meeting is dropped without failing the course
			slog.DebugContext(ctx, "meeting references unknown section",
				"component", m.Component,
				"section", m.SectionCode,
			)
			continue
		}
		err := s.qry.UpsertMeeting(ctx, db.UpsertMeetingParams{
			SectionID:    sectionID,
			DayOfWeek:    m.Day,
			StartMinutes: m.StartMinutes,
			EndMinutes:   m.EndMinutes,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to upsert meeting")
			return result, err
		}
		result.Meetings++
	}

	span.SetAttributes(
		attribute.Int64("sections", result.Sections),
		attribute.Int64("meetings", result.Meetings),
	)
	return result, nil
}
