// Package classdata normalizes the planner's class-data XML payload
// into canonical course, section and meeting records.
package classdata

import (
	"encoding/xml"
	"strconv"
	"strings"
)

type Course struct {
	Subject string
	Number  string
	Title   string
}

type Section struct {
	Component   string
	Code        string
	BlockKey    string
	Delivery    string
	ClassNumber string
}

// Meeting references its owning section by (Component, SectionCode),
// surrogate ids are resolved later during ingestion.
type Meeting struct {
	Component    string
	SectionCode  string
	Day          int64
	StartMinutes int64
	EndMinutes   int64
}

type CourseData struct {
	Course   Course
	Sections []Section
	Meetings []Meeting
}

// the payload encodes "one or many" nodes as either a singular element
// or a homogeneous list. slice-typed fields absorb both shapes at the
// parse boundary so nothing downstream has to care.
type document struct {
	Courses []courseNode `xml:"classdata>course"`
}

type courseNode struct {
	Code   string           `xml:"code,attr"`
	Number string           `xml:"number,attr"`
	Title  string           `xml:"title,attr"`
	Groups []selectionGroup `xml:"uselection"`
}

type selectionGroup struct {
	Selections []selectionNode `xml:"selection"`
	Timeblocks []timeblockNode `xml:"timeblock"`
}

type selectionNode struct {
	Blocks []blockNode `xml:"block"`
}

type blockNode struct {
	Type         string `xml:"type,attr"`
	SecNo        string `xml:"secNo,attr"`
	Im           string `xml:"im,attr"`
	Key          string `xml:"key,attr"`
	ClassNumber  string `xml:"cn,attr"`
	TimeblockIDs string `xml:"timeblockids,attr"`
}

type timeblockNode struct {
	ID  string `xml:"id,attr"`
	Day string `xml:"day,attr"`
	T1  string `xml:"t1,attr"`
	T2  string `xml:"t2,attr"`
}

type timeslot struct {
	day   int64
	start int64
	end   int64
}

// Parse converts one raw class-data payload into canonical records.
// It returns (nil, nil) when the document carries no usable course
// node, and an error only when the XML itself cannot be parsed.
func Parse(xmlText string) (*CourseData, error) {
	var doc document
	err := xml.Unmarshal([]byte(xmlText), &doc)
	if err != nil {
		return nil, err
	}
	if len(doc.Courses) == 0 {
		return nil, nil
	}

	course := doc.Courses[0]
	if course.Code == "" || course.Number == "" {
		return nil, nil
	}

	out := &CourseData{
		Course: Course{
			Subject: course.Code,
			Number:  course.Number,
			Title:   course.Title,
		},
	}

	for _, group := range course.Groups {
		// timeblock ids are only meaningful within their own selection
		// group, the index must not leak across groups
		slots := indexTimeblocks(group.Timeblocks)

		for _, sel := range group.Selections {
			for _, block := range sel.Blocks {
				out.Sections = append(out.Sections, Section{
					Component:   block.Type,
					Code:        block.SecNo,
					BlockKey:    block.Key,
					Delivery:    deliveryLabel(block.Im),
					ClassNumber: block.ClassNumber,
				})

				for _, id := range parseTimeblockIDs(block.TimeblockIDs) {
					slot, ok := slots[id]
					if !ok {
						// dangling reference, drop this one meeting
						// and keep the section
						continue
					}
					out.Meetings = append(out.Meetings, Meeting{
						Component:    block.Type,
						SectionCode:  block.SecNo,
						Day:          slot.day,
						StartMinutes: slot.start,
						EndMinutes:   slot.end,
					})
				}
			}
		}
	}

	return out, nil
}

func indexTimeblocks(nodes []timeblockNode) map[int64]timeslot {
	slots := map[int64]timeslot{}
	for _, tb := range nodes {
		id, err := strconv.ParseInt(tb.ID, 10, 64)
		if err != nil {
			continue
		}
		day, err := strconv.ParseInt(tb.Day, 10, 64)
		if err != nil {
			continue
		}
		start, err := strconv.ParseInt(tb.T1, 10, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseInt(tb.T2, 10, 64)
		if err != nil {
			continue
		}
		slots[id] = timeslot{day: day, start: start, end: end}
	}
	return slots
}

func parseTimeblockIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

const deliveryInPerson = "P"

func deliveryLabel(code string) string {
	if code == deliveryInPerson {
		return "in person"
	}
	return code
}
