package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrCorruptState = errors.New("stored goals are corrupted")
)

// Rows is the storage under the ledger: one JSON-array value per user_id.
type Rows interface {
	Get(ctx context.Context, userID string) (raw []byte, found bool, err error)
	Insert(ctx context.Context, userID string, raw []byte) error
	Append(ctx context.Context, userID string, rawGoal []byte) error
	Replace(ctx context.Context, userID string, raw []byte) error
}

// Store owns read-modify-write access to users' goal collections.
//
// Every mutation runs under a per-user mutex spanning the read, the
// transform and the write, so two concurrent mutations on the same user
// cannot interleave and lose each other's effect. Different users never
// contend.
type Store struct {
	rows Rows

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(rows Rows) *Store {
	return &Store{
		rows:  rows,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Append stamps each input with a fresh id and createdAt and merges it into
// the user's collection. On a pre-existing row each goal is appended
// individually, so a failure mid-batch leaves a durable prefix: the returned
// count says how many made it in.
func (s *Store) Append(ctx context.Context, userID string, inputs []GoalInput) (int, error) {
	if userID == "" || len(inputs) == 0 {
		return 0, ErrInvalidInput
	}

	now := time.Now().UTC().Format(time.RFC3339)
	stamped := make([]Goal, 0, len(inputs))
	for _, in := range inputs {
		stamped = append(stamped, Goal{
			ID:          uuid.NewString(),
			Title:       in.Title,
			Description: in.Description,
			Status:      in.Status,
			CreatedAt:   now,
			EndDateTask: in.EndDateTask,
		})
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	_, found, err := s.rows.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	if !found {
		raw, err := encodeGoals(stamped)
		if err != nil {
			return 0, err
		}
		if err := s.rows.Insert(ctx, userID, raw); err != nil {
			return 0, err
		}
		return len(stamped), nil
	}

	for i, g := range stamped {
		raw, err := json.Marshal(g)
		if err != nil {
			return i, err
		}
		if err := s.rows.Append(ctx, userID, raw); err != nil {
			return i, err
		}
	}
	return len(stamped), nil
}

// List returns the user's full collection. Unparseable stored values fall
// back to an empty collection on this path.
func (s *Store) List(ctx context.Context, userID string) ([]Goal, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	raw, found, err := s.rows.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return decodeGoalsLenient(raw), nil
}

// Get returns the single goal matching key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, userID, key string) (Goal, error) {
	gs, err := s.List(ctx, userID)
	if err != nil {
		return Goal{}, err
	}
	for _, g := range gs {
		if matches(g, key) {
			return g, nil
		}
	}
	return Goal{}, ErrNotFound
}

// UpdateStatus replaces the status (and, when supplied, dateDone) of the
// goal matching key and rewrites the collection. A key that matches nothing
// is a no-op on the element level: the collection is written back unchanged.
func (s *Store) UpdateStatus(ctx context.Context, userID, key, status string, dateDone *string) ([]Goal, error) {
	if userID == "" || key == "" || status == "" {
		return nil, ErrInvalidInput
	}
	return s.rewrite(ctx, userID, func(gs []Goal) []Goal {
		for i := range gs {
			if matches(gs[i], key) {
				gs[i].Status = status
				if dateDone != nil {
					gs[i].DateDone = dateDone
				}
			}
		}
		return gs
	})
}

// UpdateDeadline replaces only the endDateTask of the goal matching key.
func (s *Store) UpdateDeadline(ctx context.Context, userID, key, endDateTask string) ([]Goal, error) {
	if userID == "" || key == "" {
		return nil, ErrInvalidInput
	}
	return s.rewrite(ctx, userID, func(gs []Goal) []Goal {
		for i := range gs {
			if matches(gs[i], key) {
				gs[i].EndDateTask = endDateTask
			}
		}
		return gs
	})
}

// Delete filters out the goal matching key. Relative order of the remaining
// goals is preserved; a key that matches nothing leaves the collection as is.
func (s *Store) Delete(ctx context.Context, userID, key string) ([]Goal, error) {
	if userID == "" || key == "" {
		return nil, ErrInvalidInput
	}
	return s.rewrite(ctx, userID, func(gs []Goal) []Goal {
		kept := gs[:0]
		for _, g := range gs {
			if !matches(g, key) {
				kept = append(kept, g)
			}
		}
		return kept
	})
}

// MarkEmailSent stamps emailSentAt on the goal matching key. The second
// return value reports whether any goal matched.
func (s *Store) MarkEmailSent(ctx context.Context, userID, key string, when time.Time) ([]Goal, bool, error) {
	if userID == "" || key == "" {
		return nil, false, ErrInvalidInput
	}

	matched := false
	stamp := when.UTC().Format(time.RFC3339)
	gs, err := s.rewrite(ctx, userID, func(gs []Goal) []Goal {
		for i := range gs {
			if matches(gs[i], key) {
				gs[i].EmailSentAt = &stamp
				matched = true
			}
		}
		return gs
	})
	return gs, matched, err
}

// rewrite is the shared read-modify-write path: lock the user, load and
// decode the full collection, transform it, encode and replace the row.
// A decode failure here must not silently drop existing goals, so it is
// surfaced as ErrCorruptState and nothing is written.
func (s *Store) rewrite(ctx context.Context, userID string, transform func([]Goal) []Goal) ([]Goal, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	raw, found, err := s.rows.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	gs, err := decodeGoals(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	gs = transform(gs)

	out, err := encodeGoals(gs)
	if err != nil {
		return nil, err
	}
	if err := s.rows.Replace(ctx, userID, out); err != nil {
		return nil, err
	}
	return gs, nil
}

// matches reports whether key identifies g. The API keys goals by their
// createdAt timestamp; the server-generated id is accepted too, which keeps
// goals addressable even if two were created in the same clock tick.
func matches(g Goal, key string) bool {
	return (g.ID != "" && g.ID == key) || g.CreatedAt == key
}
