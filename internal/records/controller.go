// Package records keeps one view's list of student records in step with the
// document store. Every successful mutation is followed by a full re-list;
// the list is never patched locally.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"student-dashboard/internal/model"
	"student-dashboard/internal/notify"
	"student-dashboard/internal/store"
)

// CollectionName is the document-store collection holding student records.
const CollectionName = "students"

// createdAtLayout matches JavaScript's Date.toISOString output.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

const (
	msgFetchFailure  = "Failed to fetch students"
	msgCreateSuccess = "Student added successfully"
	msgCreateFailure = "Failed to add student"
	msgUpdateSuccess = "Student updated successfully"
	msgUpdateFailure = "Failed to update student"
	msgDeleteSuccess = "Student deleted successfully"
	msgDeleteFailure = "Failed to delete student"
)

var ErrUnknownRecord = errors.New("record is not in the current list")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type Controller struct {
	store    store.Collection
	notifier notify.Notifier
	now      func() time.Time
	logger   *slog.Logger

	mu         sync.RWMutex
	records    []model.StudentRecord
	draft      model.Draft
	dialogOpen bool
	editingID  string
}

type Option func(*Controller)

func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

type discardNotifier struct{}

func (discardNotifier) Success(string) {}
func (discardNotifier) Failure(string) {}

func NewController(st store.Collection, opts ...Option) *Controller {
	c := &Controller{
		store:    st,
		notifier: discardNotifier{},
		now:      time.Now,
		logger:   slog.Default(),
		records:  []model.StudentRecord{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init performs the initial load of the list.
func (c *Controller) Init(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh replaces the in-memory list with the store's current contents.
// On failure the list is left untouched.
func (c *Controller) Refresh(ctx context.Context) error {
	c.logger.Debug("fetching students")
	docs, err := c.store.ListAll(ctx)
	if err != nil {
		c.logger.Error("fetch students failed", "error", err)
		c.notifier.Failure(msgFetchFailure)
		return fmt.Errorf("list students: %w", err)
	}

	list := make([]model.StudentRecord, 0, len(docs))
	for _, doc := range docs {
		list = append(list, model.RecordFromFields(doc.ID, doc.Fields))
	}

	c.mu.Lock()
	c.records = list
	c.mu.Unlock()

	c.logger.Debug("students fetched", "count", len(list))
	return nil
}

// Create validates draft, persists it with a creation timestamp and
// re-lists. The draft and dialog survive any failure.
func (c *Controller) Create(ctx context.Context, draft model.Draft) (string, error) {
	c.mu.Lock()
	c.draft = draft
	c.mu.Unlock()

	if err := validateDraft(draft); err != nil {
		c.notifier.Failure(err.Message)
		return "", err
	}

	fields := draft.Fields(c.now().UTC().Format(createdAtLayout))
	id, err := c.store.Insert(ctx, fields)
	if err != nil {
		c.logger.Error("add student failed", "error", err)
		c.notifier.Failure(msgCreateFailure)
		return "", fmt.Errorf("insert student: %w", err)
	}
	c.logger.Info("student added", "id", id)

	c.resetForm()
	_ = c.Refresh(ctx)
	c.notifier.Success(msgCreateSuccess)
	return id, nil
}

// Update validates draft like Create and replaces the stored document,
// keeping fields the form does not manage such as createdAt.
func (c *Controller) Update(ctx context.Context, id string, draft model.Draft) error {
	c.mu.Lock()
	c.draft = draft
	c.editingID = id
	c.mu.Unlock()

	if err := validateDraft(draft); err != nil {
		c.notifier.Failure(err.Message)
		return err
	}

	existing, err := c.store.Get(ctx, id)
	if err != nil {
		c.logger.Error("update student failed", "id", id, "error", err)
		c.notifier.Failure(msgUpdateFailure)
		return fmt.Errorf("get student: %w", err)
	}
	fields := existing.Fields
	if fields == nil {
		fields = make(map[string]any)
	}
	for k, v := range draft.Fields("") {
		fields[k] = v
	}

	if err := c.store.Replace(ctx, id, fields); err != nil {
		c.logger.Error("update student failed", "id", id, "error", err)
		c.notifier.Failure(msgUpdateFailure)
		return fmt.Errorf("replace student: %w", err)
	}
	c.logger.Info("student updated", "id", id)

	c.resetForm()
	_ = c.Refresh(ctx)
	c.notifier.Success(msgUpdateSuccess)
	return nil
}

// Delete removes id from the store, then re-lists. Nothing is removed
// locally before the store confirms.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.logger.Info("deleting student", "id", id)
	if err := c.store.DeleteByID(ctx, id); err != nil {
		c.logger.Error("delete student failed", "id", id, "error", err)
		c.notifier.Failure(msgDeleteFailure)
		return fmt.Errorf("delete student: %w", err)
	}

	_ = c.Refresh(ctx)
	c.notifier.Success(msgDeleteSuccess)
	return nil
}

func validateDraft(d model.Draft) *ValidationError {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return &ValidationError{Field: model.FieldName, Message: "Student name is required"}
	case strings.TrimSpace(d.Class) == "":
		return &ValidationError{Field: model.FieldClass, Message: "Class is required"}
	case strings.TrimSpace(d.RollNumber) == "":
		return &ValidationError{Field: model.FieldRollNumber, Message: "Roll number is required"}
	}
	return nil
}

func (c *Controller) resetForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = model.Draft{}
	c.dialogOpen = false
	c.editingID = ""
}

// Records returns a copy of the current list in store order.
func (c *Controller) Records() []model.StudentRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.StudentRecord(nil), c.records...)
}

func (c *Controller) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// View looks id up in the current list without contacting the store.
func (c *Controller) View(id string) (model.StudentRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rec := range c.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return model.StudentRecord{}, false
}

// BeginEdit loads a listed record into the draft and opens the dialog in
// edit mode.
func (c *Controller) BeginEdit(id string) (model.Draft, error) {
	rec, ok := c.View(id)
	if !ok {
		return model.Draft{}, ErrUnknownRecord
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = rec.Draft()
	c.editingID = id
	c.dialogOpen = true
	return c.draft, nil
}

func (c *Controller) OpenDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editingID != "" {
		c.draft = model.Draft{}
		c.editingID = ""
	}
	c.dialogOpen = true
}

// DismissDialog closes the dialog and discards the draft.
func (c *Controller) DismissDialog() {
	c.resetForm()
}

func (c *Controller) DialogOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dialogOpen
}

func (c *Controller) Draft() model.Draft {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draft
}

// EditingID is the record the dialog is editing, "" in create mode.
func (c *Controller) EditingID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.editingID
}
