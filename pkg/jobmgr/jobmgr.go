// Package jobmgr runs named background jobs under a shared context and keeps
// track of which ones are still running.
//
//	jm := jobmgr.NewManager(ctx, nil)
//	_ = jm.StartAsync("cooldowns", func(ctx context.Context) error {
//	    store.RunCleaner(ctx)
//	    return nil
//	})
//	...
//	jm.Wait()
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrRunning    = errors.New("job is already running")
	ErrNotRunning = errors.New("job is not running")
)

// State is a job lifecycle step passed to the StatusReporter.
type State int

const (
	StateRunning State = iota
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// StatusReporter receives lifecycle events. err is set for StateFailed.
type StatusReporter func(name string, state State, err error)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts, stops and tracks jobs. It is safe for concurrent use.
type Manager struct {
	ctx      context.Context
	reporter StatusReporter

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewManager returns a manager whose jobs end when ctx does. reporter may
// be nil.
func NewManager(ctx context.Context, reporter StatusReporter) *Manager {
	return &Manager{ctx: ctx, reporter: reporter, jobs: make(map[string]*job)}
}

// StartAsync runs runner on its own goroutine. Names are unique among
// running jobs; a finished job's name can be reused.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrRunning)
	}
	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		m.report(name, StateRunning, nil)
		err := runner(ctx)

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			m.report(name, StateFailed, err)
			return
		}
		m.report(name, StateDone, nil)
	}()
	return nil
}

// Stop cancels a running job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotRunning)
	}
	j.cancel()
	<-j.done
	return nil
}

// List returns the running job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status summarizes the running jobs, e.g. "Running jobs: cooldowns, edits".
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}

// Wait blocks until every started job has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) report(name string, state State, err error) {
	if m.reporter != nil {
		m.reporter(name, state, err)
	}
}
