// Package syncer orchestrates every mutation of the task collections: each
// operation validates its input, applies the change to the in-memory
// mirror, then writes through to the spreadsheet. A failed remote write
// rolls the mirror back to its pre-call state, so the mirror is never ahead
// of the remote store when an operation reports failure.
package syncer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/harrisonrobin/tasksheet/pkg/cache"
	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/sheets"
	"github.com/harrisonrobin/tasksheet/pkg/validate"
)

// Tables names the spreadsheet tabs backing each collection.
type Tables struct {
	Tasks      string
	Archive    string
	Categories string
	Projects   string
}

// DefaultTables matches the original spreadsheet layout, plus the archive
// tab that archived tasks move to.
func DefaultTables() Tables {
	return Tables{Tasks: "tasks", Archive: "archive", Categories: "category", Projects: "project"}
}

// Policy configures coordinator behavior.
type Policy struct {
	// ArchiveCompleted relocates a task to the archive tab when it is
	// marked completed, in addition to setting its status.
	ArchiveCompleted bool
	// RemoteTimeout bounds each remote call. Zero means no bound beyond
	// the caller's context.
	RemoteTimeout time.Duration
}

// Coordinator is the sole writer to the cache. Mutations are serialized by
// an internal mutex: the rollback discipline assumes no interleaved
// mutation of the same record.
type Coordinator struct {
	mu     sync.Mutex
	cache  *cache.Store
	store  sheets.RowStore
	tables Tables
	policy Policy
	now    func() time.Time
}

// New wires a coordinator to its mirror and remote store.
func New(c *cache.Store, store sheets.RowStore, tables Tables, policy Policy) *Coordinator {
	return &Coordinator{
		cache:  c,
		store:  store,
		tables: tables,
		policy: policy,
		now:    time.Now,
	}
}

// Cache exposes the mirror for read-only use (queries, rendering).
func (c *Coordinator) Cache() *cache.Store {
	return c.cache
}

func (c *Coordinator) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.policy.RemoteTimeout > 0 {
		return context.WithTimeout(ctx, c.policy.RemoteTimeout)
	}
	return context.WithCancel(ctx)
}

// Load reads all four tabs and fills the mirror. Rows that fail to decode
// are skipped with a warning rather than aborting the load; the remote
// sheet is hand-editable and a single bad row should not brick startup.
func (c *Coordinator) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()

	taskRows, err := c.store.ReadAll(rctx, c.tables.Tasks)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	archiveRows, err := c.store.ReadAll(rctx, c.tables.Archive)
	if err != nil {
		return fmt.Errorf("load archive: %w", err)
	}
	categoryRows, err := c.store.ReadAll(rctx, c.tables.Categories)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	projectRows, err := c.store.ReadAll(rctx, c.tables.Projects)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}

	c.cache.SeedTasks(decodeTasks(c.tables.Tasks, taskRows))
	c.cache.SeedArchived(decodeTasks(c.tables.Archive, archiveRows))

	categories := make([]model.Category, 0, len(categoryRows))
	for _, row := range categoryRows {
		cat, err := model.CategoryFromRow(row)
		if err != nil {
			log.Printf("Warning: skipping %s row: %v", c.tables.Categories, err)
			continue
		}
		categories = append(categories, cat)
	}
	c.cache.SeedCategories(categories)

	projects := make([]model.Project, 0, len(projectRows))
	for _, row := range projectRows {
		p, err := model.ProjectFromRow(row)
		if err != nil {
			log.Printf("Warning: skipping %s row: %v", c.tables.Projects, err)
			continue
		}
		projects = append(projects, p)
	}
	c.cache.SeedProjects(projects)

	return nil
}

func decodeTasks(table string, rows [][]interface{}) []model.Task {
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		t, err := model.TaskFromRow(row)
		if err != nil {
			log.Printf("Warning: skipping %s row: %v", table, err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// CreateInput carries the caller-supplied fields for a new task. Deadline
// and Priority arrive as raw strings and are validated here.
type CreateInput struct {
	Name       string
	Deadline   string
	Priority   string
	CategoryID int
	ProjectID  int
	Notes      string
}

// Create validates the input, allocates the next identifier, inserts the
// task into the mirror and appends it to the tasks tab. A failed append
// removes the tentative mirror entry before the error is returned, and the
// identifier is not considered consumed.
func (c *Coordinator) Create(ctx context.Context, in CreateInput) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The trimmed name is what gets stored; leading and trailing
	// whitespace never reaches the sheet.
	name := strings.TrimSpace(in.Name)
	if err := validate.Name(name); err != nil {
		return model.Task{}, err
	}
	deadline, err := validate.Deadline(in.Deadline, c.now())
	if err != nil {
		return model.Task{}, err
	}
	priority, err := validate.Priority(in.Priority)
	if err != nil {
		return model.Task{}, err
	}
	if err := validate.Notes(in.Notes); err != nil {
		return model.Task{}, err
	}
	if err := validate.Reference("category", in.CategoryID, c.cache.CategoryIDs()); err != nil {
		return model.Task{}, err
	}
	if err := validate.Reference("project", in.ProjectID, c.cache.ProjectIDs()); err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		ID:         c.cache.NextID(),
		Name:       name,
		CreateDate: model.DateOf(c.now()),
		Deadline:   deadline,
		Status:     model.StatusPending,
		Priority:   priority,
		CategoryID: in.CategoryID,
		ProjectID:  in.ProjectID,
		Notes:      in.Notes,
	}

	c.cache.Upsert(task)

	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()
	if err := c.store.AppendRow(rctx, c.tables.Tasks, task.Row()); err != nil {
		c.cache.Remove(task.ID)
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Changes carries the fields an update touches. Nil fields are left as they
// are; only non-nil fields are validated.
type Changes struct {
	Name       *string
	Deadline   *string
	Priority   *string
	Status     *string
	Notes      *string
	CategoryID *int
	ProjectID  *int
}

// Update applies the given field changes to an active task, writing the
// full updated row through to the tasks tab. On remote failure the mirror
// record is restored to its pre-update snapshot.
func (c *Coordinator) Update(ctx context.Context, id int, ch Changes) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before, ok := c.cache.Task(id)
	if !ok {
		return model.Task{}, &cache.NotFoundError{ID: id}
	}

	updated := before
	if ch.Name != nil {
		name := strings.TrimSpace(*ch.Name)
		if err := validate.Name(name); err != nil {
			return model.Task{}, err
		}
		updated.Name = name
	}
	if ch.Deadline != nil {
		d, err := validate.Deadline(*ch.Deadline, c.now())
		if err != nil {
			return model.Task{}, err
		}
		updated.Deadline = d
	}
	if ch.Priority != nil {
		p, err := validate.Priority(*ch.Priority)
		if err != nil {
			return model.Task{}, err
		}
		updated.Priority = p
	}
	if ch.Status != nil {
		s, err := validate.Status(*ch.Status)
		if err != nil {
			return model.Task{}, err
		}
		updated.Status = s
	}
	if ch.Notes != nil {
		if err := validate.Notes(*ch.Notes); err != nil {
			return model.Task{}, err
		}
		updated.Notes = *ch.Notes
	}
	if ch.CategoryID != nil {
		if err := validate.Reference("category", *ch.CategoryID, c.cache.CategoryIDs()); err != nil {
			return model.Task{}, err
		}
		updated.CategoryID = *ch.CategoryID
	}
	if ch.ProjectID != nil {
		if err := validate.Reference("project", *ch.ProjectID, c.cache.ProjectIDs()); err != nil {
			return model.Task{}, err
		}
		updated.ProjectID = *ch.ProjectID
	}

	c.cache.Upsert(updated)

	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()
	if err := c.store.UpdateRow(rctx, c.tables.Tasks, id, updated.Row()); err != nil {
		c.cache.Upsert(before)
		return model.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	return updated, nil
}

// Complete marks a task completed, stamping the completion date. Completing
// an already-completed task is a no-op. When the archive-completed policy
// is set, the task is additionally relocated to the archive tab; a failed
// relocation leaves the task completed but active, which both sides agree
// on.
func (c *Coordinator) Complete(ctx context.Context, id int) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before, ok := c.cache.Task(id)
	if !ok {
		return model.Task{}, &cache.NotFoundError{ID: id}
	}
	if before.Status == model.StatusCompleted {
		return before, nil
	}

	completed := before
	completed.Status = model.StatusCompleted
	completed.CompleteDate = model.DateOf(c.now())

	c.cache.Upsert(completed)

	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()
	if err := c.store.UpdateRow(rctx, c.tables.Tasks, id, completed.Row()); err != nil {
		c.cache.Upsert(before)
		return model.Task{}, fmt.Errorf("complete task %d: %w", id, err)
	}

	if c.policy.ArchiveCompleted {
		if err := c.archiveLocked(ctx, completed); err != nil {
			return model.Task{}, fmt.Errorf("archive completed task %d: %w", id, err)
		}
	}
	return completed, nil
}

// Archive moves a task from the active collection to the archive, both in
// the mirror and in the spreadsheet. Archiving an id that is not active
// returns NotFoundError, so a second Archive of the same id fails rather
// than duplicating the archived record.
func (c *Coordinator) Archive(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.cache.Task(id)
	if !ok {
		return &cache.NotFoundError{ID: id}
	}
	if err := c.archiveLocked(ctx, task); err != nil {
		return fmt.Errorf("archive task %d: %w", id, err)
	}
	return nil
}

// archiveLocked performs the mirror move and the remote move, restoring the
// mirror if the remote move fails. Callers hold the mutex.
func (c *Coordinator) archiveLocked(ctx context.Context, task model.Task) error {
	if err := c.cache.Archive(task.ID); err != nil {
		return err
	}

	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()
	if err := c.store.MoveRow(rctx, c.tables.Tasks, c.tables.Archive, task.ID, task.Row()); err != nil {
		if undoErr := c.cache.Unarchive(task.ID); undoErr != nil {
			log.Printf("Warning: could not restore task %d after failed move: %v", task.ID, undoErr)
		}
		return err
	}
	return nil
}
