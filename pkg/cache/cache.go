// Package cache holds the in-memory mirror of the spreadsheet: the active
// and archived task collections plus the category and project reference
// tables. The mirror is the authoritative read path once loaded; the sync
// coordinator is its only writer.
package cache

import (
	"fmt"
	"slices"
	"sync"

	"github.com/harrisonrobin/tasksheet/pkg/model"
)

// NotFoundError reports a task id absent from the active collection.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

// Store is the in-memory mirror. All accessors return copies; callers can
// never reach the live structures.
type Store struct {
	mu sync.RWMutex

	tasks      map[int]model.Task
	taskOrder  []int
	archived   map[int]model.Task
	archOrder  []int
	categories map[int]model.Category
	catOrder   []int
	projects   map[int]model.Project
	projOrder  []int
}

// NewStore creates an empty mirror.
func NewStore() *Store {
	return &Store{
		tasks:      make(map[int]model.Task),
		archived:   make(map[int]model.Task),
		categories: make(map[int]model.Category),
		projects:   make(map[int]model.Project),
	}
}

// SeedTasks replaces the active task collection, preserving input order.
func (s *Store) SeedTasks(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[int]model.Task, len(tasks))
	s.taskOrder = s.taskOrder[:0]
	for _, t := range tasks {
		if _, dup := s.tasks[t.ID]; !dup {
			s.taskOrder = append(s.taskOrder, t.ID)
		}
		s.tasks[t.ID] = t
	}
}

// SeedArchived replaces the archived task collection, preserving input order.
func (s *Store) SeedArchived(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archived = make(map[int]model.Task, len(tasks))
	s.archOrder = s.archOrder[:0]
	for _, t := range tasks {
		if _, dup := s.archived[t.ID]; !dup {
			s.archOrder = append(s.archOrder, t.ID)
		}
		s.archived[t.ID] = t
	}
}

// SeedCategories replaces the category reference table.
func (s *Store) SeedCategories(categories []model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = make(map[int]model.Category, len(categories))
	s.catOrder = s.catOrder[:0]
	for _, c := range categories {
		if _, dup := s.categories[c.ID]; !dup {
			s.catOrder = append(s.catOrder, c.ID)
		}
		s.categories[c.ID] = c
	}
}

// SeedProjects replaces the project reference table.
func (s *Store) SeedProjects(projects []model.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[int]model.Project, len(projects))
	s.projOrder = s.projOrder[:0]
	for _, p := range projects {
		if _, dup := s.projects[p.ID]; !dup {
			s.projOrder = append(s.projOrder, p.ID)
		}
		s.projects[p.ID] = p
	}
}

// Task returns the active task with the given id.
func (s *Store) Task(id int) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Tasks returns a snapshot of the active tasks in insertion order.
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, 0, len(s.taskOrder))
	for _, id := range s.taskOrder {
		out = append(out, s.tasks[id])
	}
	return out
}

// Archived returns a snapshot of the archived tasks in insertion order.
func (s *Store) Archived() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, 0, len(s.archOrder))
	for _, id := range s.archOrder {
		out = append(out, s.archived[id])
	}
	return out
}

// Category returns the category with the given id.
func (s *Store) Category(id int) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok
}

// Categories returns a snapshot of the category table in insertion order.
func (s *Store) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, 0, len(s.catOrder))
	for _, id := range s.catOrder {
		out = append(out, s.categories[id])
	}
	return out
}

// Project returns the project with the given id.
func (s *Store) Project(id int) (model.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	return p, ok
}

// Projects returns a snapshot of the project table in insertion order.
func (s *Store) Projects() []model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Project, 0, len(s.projOrder))
	for _, id := range s.projOrder {
		out = append(out, s.projects[id])
	}
	return out
}

// CategoryIDs returns the set of known category identifiers.
func (s *Store) CategoryIDs() map[int]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[int]struct{}, len(s.categories))
	for id := range s.categories {
		ids[id] = struct{}{}
	}
	return ids
}

// ProjectIDs returns the set of known project identifiers.
func (s *Store) ProjectIDs() map[int]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[int]struct{}, len(s.projects))
	for id := range s.projects {
		ids[id] = struct{}{}
	}
	return ids
}

// Upsert inserts or replaces an active task.
func (s *Store) Upsert(t model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[t.ID]; !exists {
		s.taskOrder = append(s.taskOrder, t.ID)
	}
	s.tasks[t.ID] = t
}

// Remove deletes an active task and returns it. Used to roll back a
// tentative create after a failed remote append.
func (s *Store) Remove(id int) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	delete(s.tasks, id)
	s.taskOrder = slices.DeleteFunc(s.taskOrder, func(v int) bool { return v == id })
	return t, true
}

// Archive moves a task from the active collection to the archived one.
func (s *Store) Archive(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.tasks, id)
	s.taskOrder = slices.DeleteFunc(s.taskOrder, func(v int) bool { return v == id })
	if _, exists := s.archived[id]; !exists {
		s.archOrder = append(s.archOrder, id)
	}
	s.archived[id] = t
	return nil
}

// Unarchive moves a task back from the archived collection to the active
// one. It is the compensating inverse of Archive for rollback.
func (s *Store) Unarchive(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.archived[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.archived, id)
	s.archOrder = slices.DeleteFunc(s.archOrder, func(v int) bool { return v == id })
	if _, exists := s.tasks[id]; !exists {
		s.taskOrder = append(s.taskOrder, id)
	}
	s.tasks[id] = t
	return nil
}

// NextID returns the next unused task identifier: one greater than every
// identifier in the active and archived collections combined. Ids are
// never reused, even after archival. An empty store yields 1.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for id := range s.tasks {
		if id > max {
			max = id
		}
	}
	for id := range s.archived {
		if id > max {
			max = id
		}
	}
	return max + 1
}
