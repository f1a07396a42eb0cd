package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used throughout the spreadsheet.
const DateLayout = "2006-01-02"

// Priority is the urgency level of a task. The empty priority is valid and
// sorts after Low.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
	PriorityNone   Priority = ""
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Date is a calendar date with no time-of-day component.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Task is a single task record. Tasks are plain values; callers may copy
// them freely without aliasing cache state.
type Task struct {
	ID           int
	Name         string
	CreateDate   Date
	Deadline     Date
	CompleteDate Date
	Status       Status
	Priority     Priority
	CategoryID   int
	ProjectID    int
	Notes        string
}

// Category is a reference record a task's CategoryID must resolve to.
type Category struct {
	ID   int
	Name string
}

// Project is a reference record a task's ProjectID must resolve to.
type Project struct {
	ID   int
	Name string
}

// Task rows occupy ten columns in the spreadsheet, in this order:
// id, name, create date, deadline, complete date, status, priority,
// category id, project id, notes.
const TaskColumns = 10

// CellString renders a raw spreadsheet cell as a string. The Sheets API
// returns cells as interface{} values; untyped cells arrive as strings and
// numeric cells as float64.
func CellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", c)
	}
}

// CellInt parses a raw spreadsheet cell as an integer identifier.
func CellInt(v interface{}) (int, error) {
	s := strings.TrimSpace(CellString(v))
	if s == "" {
		return 0, fmt.Errorf("empty identifier cell")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("identifier cell %q is not an integer: %w", s, err)
	}
	return n, nil
}

func cellDate(v interface{}) (Date, error) {
	s := strings.TrimSpace(CellString(v))
	if s == "" {
		return Date{}, nil
	}
	return ParseDate(s)
}

// Row renders the task as a ten-column spreadsheet row.
func (t Task) Row() []interface{} {
	return []interface{}{
		strconv.Itoa(t.ID),
		t.Name,
		t.CreateDate.String(),
		t.Deadline.String(),
		t.CompleteDate.String(),
		string(t.Status),
		string(t.Priority),
		strconv.Itoa(t.CategoryID),
		strconv.Itoa(t.ProjectID),
		t.Notes,
	}
}

// TaskFromRow decodes a spreadsheet row into a Task. Rows shorter than the
// full column count are tolerated; trailing empty cells are routinely
// omitted by the API.
func TaskFromRow(row []interface{}) (Task, error) {
	cell := func(i int) interface{} {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	id, err := CellInt(cell(0))
	if err != nil {
		return Task{}, fmt.Errorf("task row: %w", err)
	}

	createDate, err := cellDate(cell(2))
	if err != nil {
		return Task{}, fmt.Errorf("task %d create date: %w", id, err)
	}
	deadline, err := cellDate(cell(3))
	if err != nil {
		return Task{}, fmt.Errorf("task %d deadline: %w", id, err)
	}
	completeDate, err := cellDate(cell(4))
	if err != nil {
		return Task{}, fmt.Errorf("task %d complete date: %w", id, err)
	}

	categoryID := 0
	if strings.TrimSpace(CellString(cell(7))) != "" {
		if categoryID, err = CellInt(cell(7)); err != nil {
			return Task{}, fmt.Errorf("task %d category: %w", id, err)
		}
	}
	projectID := 0
	if strings.TrimSpace(CellString(cell(8))) != "" {
		if projectID, err = CellInt(cell(8)); err != nil {
			return Task{}, fmt.Errorf("task %d project: %w", id, err)
		}
	}

	return Task{
		ID:           id,
		Name:         CellString(cell(1)),
		CreateDate:   createDate,
		Deadline:     deadline,
		CompleteDate: completeDate,
		Status:       Status(CellString(cell(5))),
		Priority:     Priority(CellString(cell(6))),
		CategoryID:   categoryID,
		ProjectID:    projectID,
		Notes:        CellString(cell(9)),
	}, nil
}

// Row renders the category as a two-column reference row.
func (c Category) Row() []interface{} {
	return []interface{}{strconv.Itoa(c.ID), c.Name}
}

// Row renders the project as a two-column reference row.
func (p Project) Row() []interface{} {
	return []interface{}{strconv.Itoa(p.ID), p.Name}
}

// CategoryFromRow decodes an [id, name] reference row.
func CategoryFromRow(row []interface{}) (Category, error) {
	if len(row) < 1 {
		return Category{}, fmt.Errorf("category row is empty")
	}
	id, err := CellInt(row[0])
	if err != nil {
		return Category{}, fmt.Errorf("category row: %w", err)
	}
	name := ""
	if len(row) > 1 {
		name = CellString(row[1])
	}
	return Category{ID: id, Name: name}, nil
}

// ProjectFromRow decodes an [id, name] reference row.
func ProjectFromRow(row []interface{}) (Project, error) {
	if len(row) < 1 {
		return Project{}, fmt.Errorf("project row is empty")
	}
	id, err := CellInt(row[0])
	if err != nil {
		return Project{}, fmt.Errorf("project row: %w", err)
	}
	name := ""
	if len(row) > 1 {
		name = CellString(row[1])
	}
	return Project{ID: id, Name: name}, nil
}
