// Package taskstore is the client-side source of truth for the task list.
// Every mutation is applied optimistically; connectivity failures are routed
// into a FIFO queue of pending actions replayed when the network returns,
// while all other failures roll the optimistic change back.
package taskstore

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"planner/internal/api"
	"planner/internal/localstore"
	"planner/internal/models"
	"planner/internal/netwatch"
)

// snapshotKey is the fixed local-storage key for the task/queue snapshot.
const snapshotKey = "todo-state"

// ErrTaskNotFound is returned when a mutation targets an unknown task.
var ErrTaskNotFound = errors.New("task not found")

// TodoAPI is the slice of the remote client the store depends on.
type TodoAPI interface {
	ListTodos(ctx context.Context, q api.TodoQuery) ([]models.Task, error)
	CreateTodo(ctx context.Context, payload api.TaskPayload) (models.Task, error)
	UpdateTodo(ctx context.Context, id string, patch api.TaskPatch) (models.Task, error)
	DeleteTodo(ctx context.Context, id string) error
}

// Config carries the store's collaborators. API is required; everything else
// degrades gracefully when absent.
type Config struct {
	API     TodoAPI
	Local   *localstore.Store
	Monitor *netwatch.Monitor
	Logger  *slog.Logger
	// IsConnectivityError classifies failures; nil falls back to
	// api.IsConnectivityError.
	IsConnectivityError func(error) bool
}

type snapshot struct {
	Tasks []models.Task   `json:"tasks"`
	Queue []PendingAction `json:"queue"`
}

// Store holds the in-memory task list and the pending-action queue.
type Store struct {
	apiClient TodoAPI
	local     *localstore.Store
	monitor   *netwatch.Monitor
	logger    *slog.Logger
	isOffline func(error) bool

	mu        sync.Mutex
	tasks     []models.Task
	queue     []PendingAction
	syncing   bool
	loading   bool
	lastQuery api.TodoQuery
	onChange  func()
}

// New builds a store, rehydrating any snapshot persisted by a previous run,
// and subscribes to the connectivity monitor so regained connectivity
// triggers a sync.
func New(cfg Config) (*Store, error) {
	if cfg.API == nil {
		return nil, errors.New("taskstore: API is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	offline := cfg.IsConnectivityError
	if offline == nil {
		offline = api.IsConnectivityError
	}

	s := &Store{
		apiClient: cfg.API,
		local:     cfg.Local,
		monitor:   cfg.Monitor,
		logger:    logger,
		isOffline: offline,
		tasks:     []models.Task{},
	}

	if s.local != nil {
		var snap snapshot
		err := s.local.Load(snapshotKey, &snap)
		switch {
		case err == nil:
			if snap.Tasks != nil {
				s.tasks = snap.Tasks
			}
			s.queue = snap.Queue
		case errors.Is(err, localstore.ErrKeyNotFound):
		default:
			return nil, err
		}
	}

	if s.monitor != nil {
		s.monitor.Subscribe(func(online bool) {
			if online {
				if err := s.Sync(context.Background()); err != nil {
					s.logger.Warn("sync after reconnect failed", slog.String("error", err.Error()))
				}
			}
		})
	}

	return s, nil
}

// OnChange registers a hook invoked after every state change. The view layer
// uses it to re-read Tasks.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Tasks returns a copy of the current in-memory task list.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Pending returns a copy of the queued offline mutations.
func (s *Store) Pending() []PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) online() bool {
	return s.monitor == nil || s.monitor.Online()
}

// Fetch replaces the task list from the backend. While offline, or when the
// request fails for connectivity reasons, the stale local list is kept and
// no error surfaces.
func (s *Store) Fetch(ctx context.Context, q api.TodoQuery) error {
	s.mu.Lock()
	s.lastQuery = q
	s.loading = true
	s.mu.Unlock()

	if !s.online() {
		s.finishLoading()
		return nil
	}

	tasks, err := s.apiClient.ListTodos(ctx, q)
	if err != nil {
		s.finishLoading()
		if s.isOffline(err) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	if tasks == nil {
		tasks = []models.Task{}
	}
	s.tasks = s.overlayQueueLocked(tasks)
	s.loading = false
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return nil
}

// Create inserts an optimistic placeholder immediately and either confirms
// it against the backend or queues the mutation. The returned task carries
// the temporary ID until confirmation.
func (s *Store) Create(ctx context.Context, payload api.TaskPayload) (models.Task, error) {
	placeholder := taskFromPayload(newTempID(), payload)

	s.mu.Lock()
	s.tasks = append(s.tasks, placeholder)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()

	if !s.online() {
		s.enqueue(PendingAction{Kind: ActionCreate, TempID: placeholder.ID, Payload: &payload})
		return placeholder, nil
	}

	created, err := s.apiClient.CreateTodo(ctx, payload)
	if err != nil {
		if s.isOffline(err) {
			s.enqueue(PendingAction{Kind: ActionCreate, TempID: placeholder.ID, Payload: &payload})
			return placeholder, nil
		}
		s.removeTask(placeholder.ID)
		return models.Task{}, err
	}

	s.mu.Lock()
	s.replaceTaskLocked(placeholder.ID, created)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return created, nil
}

// Update merges the patch into the task immediately. A patch against a
// not-yet-confirmed task folds into its queued create; otherwise it is sent
// or queued. Non-connectivity failures roll back to the previous state.
func (s *Store) Update(ctx context.Context, id string, patch api.TaskPatch) error {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	prev := s.tasks[idx]
	s.tasks[idx] = applyPatch(prev, patch)

	if isTempID(id) {
		// The create has not reached the server; fold the change into it.
		for i := range s.queue {
			if s.queue[i].Kind == ActionCreate && s.queue[i].TempID == id {
				folded := foldPatch(*s.queue[i].Payload, patch)
				s.queue[i].Payload = &folded
				break
			}
		}
		s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return nil
	}
	s.persistLocked()
	s.mu.Unlock()
	s.notify()

	if !s.online() {
		s.enqueue(PendingAction{Kind: ActionUpdate, ID: id, Patch: &patch})
		return nil
	}

	updated, err := s.apiClient.UpdateTodo(ctx, id, patch)
	if err != nil {
		if s.isOffline(err) {
			s.enqueue(PendingAction{Kind: ActionUpdate, ID: id, Patch: &patch})
			return nil
		}
		s.mu.Lock()
		if i := s.indexOfLocked(id); i >= 0 {
			s.tasks[i] = prev
		}
		s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	s.replaceTaskLocked(id, updated)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return nil
}

// Delete removes the task immediately. Deleting a not-yet-confirmed task
// cancels its queued create without contacting the server. Non-connectivity
// failures restore the removed task.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	removed := s.tasks[idx]
	s.tasks = slices.Delete(s.tasks, idx, idx+1)

	if isTempID(id) {
		// Never existed remotely; cancel the queued create as well.
		s.queue = slices.DeleteFunc(s.queue, func(a PendingAction) bool {
			return a.Kind == ActionCreate && a.TempID == id
		})
		s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return nil
	}
	s.persistLocked()
	s.mu.Unlock()
	s.notify()

	if !s.online() {
		s.enqueue(PendingAction{Kind: ActionDelete, ID: id})
		return nil
	}

	if err := s.apiClient.DeleteTodo(ctx, id); err != nil {
		if s.isOffline(err) {
			s.enqueue(PendingAction{Kind: ActionDelete, ID: id})
			return nil
		}
		s.mu.Lock()
		i := min(idx, len(s.tasks))
		s.tasks = slices.Insert(s.tasks, i, removed)
		s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return err
	}
	return nil
}

// Sync replays the pending queue in FIFO order. Actions that fail stay
// queued in their original relative order; once the queue drains, a full
// re-fetch reconciles any server-side drift. An empty queue is a no-op with
// zero network calls, and concurrent invocations are prevented by a guard.
func (s *Store) Sync(ctx context.Context) error {
	s.mu.Lock()
	if s.syncing || len(s.queue) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.syncing = true
	pass := s.queue
	s.queue = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	var failed []PendingAction
	for i, act := range pass {
		if err := s.applyAction(ctx, act, pass[i+1:]); err != nil {
			failed = append(failed, act)
		}
	}

	s.mu.Lock()
	// Actions enqueued while the pass ran stay behind the retained failures.
	s.queue = append(failed, s.queue...)
	empty := len(s.queue) == 0
	s.persistLocked()
	query := s.lastQuery
	s.mu.Unlock()
	s.notify()

	if empty {
		if err := s.Fetch(ctx, query); err != nil {
			s.logger.Warn("post-sync fetch failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Store) applyAction(ctx context.Context, act PendingAction, rest []PendingAction) error {
	switch act.Kind {
	case ActionCreate:
		created, err := s.apiClient.CreateTodo(ctx, *act.Payload)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.rewriteIDLocked(act.TempID, created.ID)
		s.replaceTaskLocked(created.ID, created)
		for i := range rest {
			if rest[i].ID == act.TempID {
				rest[i].ID = created.ID
			}
		}
		s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return nil
	case ActionUpdate:
		_, err := s.apiClient.UpdateTodo(ctx, act.ID, *act.Patch)
		return err
	case ActionDelete:
		return s.apiClient.DeleteTodo(ctx, act.ID)
	default:
		s.logger.Warn("dropping unknown pending action", slog.String("kind", string(act.Kind)))
		return nil
	}
}

// overlayQueueLocked re-applies queued offline mutations to a freshly
// fetched list, so pending work stays visible until Sync replays it. The
// server list cannot yet contain queued creates, still carries tasks queued
// for deletion, and predates queued patches.
func (s *Store) overlayQueueLocked(tasks []models.Task) []models.Task {
	for _, act := range s.queue {
		switch act.Kind {
		case ActionCreate:
			if act.Payload != nil {
				tasks = append(tasks, taskFromPayload(act.TempID, *act.Payload))
			}
		case ActionUpdate:
			if act.Patch == nil {
				continue
			}
			for i := range tasks {
				if tasks[i].ID == act.ID {
					tasks[i] = applyPatch(tasks[i], *act.Patch)
				}
			}
		case ActionDelete:
			tasks = slices.DeleteFunc(tasks, func(t models.Task) bool { return t.ID == act.ID })
		}
	}
	return tasks
}

func (s *Store) enqueue(act PendingAction) {
	s.mu.Lock()
	s.queue = append(s.queue, act)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) removeTask(id string) {
	s.mu.Lock()
	if i := s.indexOfLocked(id); i >= 0 {
		s.tasks = slices.Delete(s.tasks, i, i+1)
	}
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *Store) indexOfLocked(id string) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool { return t.ID == id })
}

func (s *Store) replaceTaskLocked(id string, t models.Task) {
	if i := s.indexOfLocked(id); i >= 0 {
		s.tasks[i] = t
	}
}

// rewriteIDLocked swaps a temporary ID for the server-assigned one in both
// the task list and the remaining queue, so the two never disagree about
// which ID refers to a task.
func (s *Store) rewriteIDLocked(tempID, realID string) {
	for i := range s.tasks {
		if s.tasks[i].ID == tempID {
			s.tasks[i].ID = realID
		}
	}
	for i := range s.queue {
		if s.queue[i].ID == tempID {
			s.queue[i].ID = realID
		}
	}
}

func (s *Store) persistLocked() {
	if s.local == nil {
		return
	}
	snap := snapshot{Tasks: s.tasks, Queue: s.queue}
	if err := s.local.Save(snapshotKey, snap); err != nil {
		s.logger.Warn("persist snapshot failed", slog.String("error", err.Error()))
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
