package broadcast

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/models"
)

const (
	UpdateTaskStatus    = "task_status"
	UpdateSubtaskStatus = "subtask_status"
	UpdateTaskNote      = "task_note"
)

// Event is one named push update carrying a rendered HTML fragment.
type Event struct {
	ID   string
	Name string
	Data string
}

// FragmentRenderer turns domain state into the fragment payloads that
// connected clients swap into the page.
type FragmentRenderer interface {
	TaskCheckbox(task *models.Task) (string, error)
	SubtaskCheckbox(subtask *models.Subtask) (string, error)
	TaskNoteForm(task *models.Task) (string, error)
}

// Subscriber is one connected viewer session. Its channel is closed on
// Unsubscribe or when the broadcaster shuts down.
type Subscriber struct {
	ch     chan Event
	closed bool
}

func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Broadcaster fans rendered update events out to every connected
// viewer session. It is constructed once per process and injected into
// handlers; Close drops all subscribers.
//
// Each subscriber has a bounded queue: when it is full the oldest
// pending event is dropped to make room. This deliberately trades
// replay completeness for bounded memory under a stalled consumer.
type Broadcaster struct {
	logger   zerolog.Logger
	renderer FragmentRenderer
	buffer   int

	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
	// Secondary index of task-scoped subscriptions. Kept up to date,
	// but the broadcast path intentionally fans out to all connections.
	taskSubscribers map[string]map[*Subscriber]struct{}
	shutdown        bool
}

func New(logger zerolog.Logger, renderer FragmentRenderer, subscriberBuffer int) *Broadcaster {
	if subscriberBuffer <= 0 {
		subscriberBuffer = 64
	}
	return &Broadcaster{
		logger:          logger,
		renderer:        renderer,
		buffer:          subscriberBuffer,
		subscribers:     make(map[*Subscriber]struct{}),
		taskSubscribers: make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new viewer session. The subscriber sees only
// events emitted after this call; there is no replay.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan Event, b.buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.shutdown {
		sub.closed = true
		close(sub.ch)
		return sub
	}

	b.subscribers[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the session and closes its channel. Safe to call
// more than once.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub)
}

// SubscribeToTask records interest in one task's updates.
func (b *Broadcaster) SubscribeToTask(taskID string, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.closed {
		return
	}
	if b.taskSubscribers[taskID] == nil {
		b.taskSubscribers[taskID] = make(map[*Subscriber]struct{})
	}
	b.taskSubscribers[taskID][sub] = struct{}{}
}

// SubscriberCount reports the number of live sessions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// BroadcastTaskUpdate renders the fragments for one state change and
// enqueues them onto every connected session. Enqueue is synchronous,
// consumption is not: the caller never waits for a subscriber to read.
func (b *Broadcaster) BroadcastTaskUpdate(task *models.Task, updateKind, subtaskID string) {
	events := b.buildEvents(task, updateKind, subtaskID)
	if len(events) == 0 {
		return
	}
	b.Broadcast(events)
}

// Broadcast enqueues the events, in order, onto every live subscriber.
// Subscribers found closed during the pass are removed afterwards;
// delivery to the others is not rolled back.
func (b *Broadcaster) Broadcast(events []Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var dead []*Subscriber
	for sub := range b.subscribers {
		if sub.closed {
			dead = append(dead, sub)
			continue
		}
		for _, ev := range events {
			b.enqueueLocked(sub, ev)
		}
	}

	for _, sub := range dead {
		b.removeLocked(sub)
	}
}

// Close drops every subscriber and rejects future subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.shutdown = true
	for sub := range b.subscribers {
		b.removeLocked(sub)
	}
}

func (b *Broadcaster) buildEvents(task *models.Task, updateKind, subtaskID string) []Event {
	var events []Event

	appendFragment := func(name, id string, render func() (string, error)) {
		data, err := render()
		if err != nil {
			b.logger.Error().
				Err(err).
				Str("event", name).
				Str("task_id", task.ID).
				Msg("failed to render fragment")
			return
		}
		events = append(events, Event{ID: id, Name: name, Data: data})
	}

	now := time.Now()
	switch updateKind {
	case UpdateTaskStatus:
		appendFragment(
			fmt.Sprintf("TaskStatusUpdate_%s", task.ID),
			eventID(task.ID, now),
			func() (string, error) { return b.renderer.TaskCheckbox(task) },
		)

	case UpdateSubtaskStatus:
		if subtask := task.FindSubtask(subtaskID); subtask != nil {
			appendFragment(
				fmt.Sprintf("SubtaskStatusUpdate_%s", subtask.ID),
				eventID(subtask.ID, now),
				func() (string, error) { return b.renderer.SubtaskCheckbox(subtask) },
			)
		}
		// The parent checkbox is re-sent as well, in case the flip
		// cascaded up.
		appendFragment(
			fmt.Sprintf("TaskStatusUpdate_%s", task.ID),
			eventID(task.ID, now),
			func() (string, error) { return b.renderer.TaskCheckbox(task) },
		)

	case UpdateTaskNote:
		appendFragment(
			fmt.Sprintf("TaskNoteUpdate_%s", task.ID),
			eventID(task.ID+"_note", now),
			func() (string, error) { return b.renderer.TaskNoteForm(task) },
		)

	default:
		b.logger.Error().
			Str("update_kind", updateKind).
			Str("task_id", task.ID).
			Msg("unknown update kind")
	}
	return events
}

// enqueueLocked never blocks: on a full queue the oldest pending event
// is dropped to make room for the newest.
func (b *Broadcaster) enqueueLocked(sub *Subscriber, ev Event) {
	select {
	case sub.ch <- ev:
		return
	default:
	}

	select {
	case <-sub.ch:
		b.logger.Warn().
			Str("event", ev.Name).
			Msg("subscriber queue full, dropped oldest event")
	default:
	}

	select {
	case sub.ch <- ev:
	default:
	}
}

func (b *Broadcaster) removeLocked(sub *Subscriber) {
	if sub.closed {
		delete(b.subscribers, sub)
		return
	}

	sub.closed = true
	delete(b.subscribers, sub)
	for taskID, subs := range b.taskSubscribers {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.taskSubscribers, taskID)
		}
	}
	close(sub.ch)
}

func eventID(entityID string, at time.Time) string {
	return fmt.Sprintf("%s_%d", entityID, at.UnixNano())
}
