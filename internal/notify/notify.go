// Package notify holds transient, dismissable user notifications.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

const DefaultLimit = 5

type Notification struct {
	ID          string    `json:"id"`
	Variant     Variant   `json:"variant"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notifier is what controllers use to surface outcomes.
type Notifier interface {
	Success(description string)
	Failure(description string)
}

// Queue keeps the most recent notifications up to a limit. The optional
// sink sees every pushed notification, e.g. to forward it to a live
// connection.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	limit int
	now   func() time.Time
	sink  func(Notification)
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Queue{limit: limit, now: time.Now}
}

func (q *Queue) SetSink(sink func(Notification)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sink = sink
}

func (q *Queue) Success(description string) {
	q.Push(VariantDefault, "Success", description)
}

func (q *Queue) Failure(description string) {
	q.Push(VariantDestructive, "Error", description)
}

func (q *Queue) Push(variant Variant, title, description string) Notification {
	n := Notification{
		ID:          uuid.NewString(),
		Variant:     variant,
		Title:       title,
		Description: description,
	}

	q.mu.Lock()
	n.CreatedAt = q.now()
	q.items = append(q.items, n)
	if len(q.items) > q.limit {
		q.items = append([]Notification(nil), q.items[len(q.items)-q.limit:]...)
	}
	sink := q.sink
	q.mu.Unlock()

	if sink != nil {
		sink(n)
	}
	return n
}

// Pending returns the live notifications, oldest first.
func (q *Queue) Pending() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notification(nil), q.items...)
}

func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}
