// pkg/pipeline/manager.go

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/progress"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/ASHISH26940/video-studio-api/pkg/timeline"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Manager keeps the live projects and runs their background work on a
// context that outlives individual requests.
type Manager struct {
	orch     *Orchestrator
	progress *progress.Service

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	projects map[string]*Project
}

func NewManager(orch *Orchestrator, progressService *progress.Service) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		orch:     orch,
		progress: progressService,
		ctx:      ctx,
		cancel:   cancel,
		projects: make(map[string]*Project),
	}
}

func (m *Manager) Orchestrator() *Orchestrator { return m.orch }

func (m *Manager) add(prompt string, doc skeleton.Skeleton) *Project {
	id := uuid.NewString()
	p := NewProject(id, prompt, doc, m.progress.CreateTracker(id))
	m.mu.Lock()
	m.projects[id] = p
	m.mu.Unlock()
	return p
}

// Start creates a project for prompt and runs the pipeline in the background.
func (m *Manager) Start(prompt string, ratio skeleton.AspectRatio) *Project {
	p := m.add(prompt, skeleton.Skeleton{AspectRatio: ratio.OrDefault()})
	m.Go(p, "run", func(ctx context.Context) error {
		return m.orch.Run(ctx, p)
	})
	return p
}

// Restore opens a saved history item as a live project. Tracks are rebuilt
// from the scenes since snapshots do not carry them.
func (m *Manager) Restore(ctx context.Context, historyID string) (*Project, error) {
	if m.orch.deps.History == nil {
		return nil, apperr.NewConfigurationError("history storage is not configured")
	}
	item, doc, found, err := m.orch.deps.History.LoadHistory(ctx, historyID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.NewNotFoundError(fmt.Sprintf("history item %s not found", historyID))
	}
	doc.AspectRatio = doc.AspectRatio.OrDefault()
	doc.Tracks = timeline.RebuildTracks(doc.Scenes)

	p := m.add(item.Prompt, doc)
	p.setHistoryID(historyID)
	p.setState(StateComplete)
	if p.Tracker != nil {
		p.Tracker.Complete("restored from history")
	}
	log.WithFields(log.Fields{"project": p.ID, "history": historyID}).Info("Restore: project restored")
	return p, nil
}

// Get looks up a live project and marks it as used.
func (m *Manager) Get(id string) (*Project, bool) {
	m.mu.RLock()
	p, ok := m.projects[id]
	m.mu.RUnlock()
	if ok {
		p.touch()
	}
	return p, ok
}

// Len reports how many projects are live.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.projects)
}

// Remove forgets a project and stops its document reducer.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	p, ok := m.projects[id]
	delete(m.projects, id)
	m.mu.Unlock()
	if ok {
		p.Close()
		m.progress.Remove(id)
	}
}

// EvictIdle forgets projects that are not busy and have not been used for at
// least maxAge. Their documents are already saved to history, from where they
// can be restored. It returns how many projects were dropped.
func (m *Manager) EvictIdle(maxAge time.Duration) int {
	var stale []*Project
	m.mu.Lock()
	for id, p := range m.projects {
		if p.Busy() || p.IdleFor() < maxAge {
			continue
		}
		delete(m.projects, id)
		stale = append(stale, p)
	}
	m.mu.Unlock()

	for _, p := range stale {
		p.Close()
		m.progress.Remove(p.ID)
		log.WithFields(log.Fields{"project": p.ID, "history": p.HistoryID()}).Debug("EvictIdle: project dropped")
	}
	return len(stale)
}

// Go runs fn for p in the background. Errors are logged with the task name.
func (m *Manager) Go(p *Project, task string, fn func(ctx context.Context) error) {
	m.wg.Add(1)
	p.beginTask()
	go func() {
		defer m.wg.Done()
		defer p.endTask()
		if err := fn(m.ctx); err != nil {
			log.WithFields(log.Fields{"project": p.ID, "task": task}).Errorf("Manager: background task failed: %v", err)
		}
	}()
}

// Apply forwards a user edit to the project's document and saves history.
func (m *Manager) Apply(ctx context.Context, p *Project, patch document.Patch) (document.Snapshot, error) {
	snap, err := p.Doc.Apply(ctx, patch)
	if err != nil {
		return snap, err
	}
	m.orch.saveHistory(ctx, p)
	return snap, nil
}

// Shutdown cancels background work and waits for it, or for ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	for id, p := range m.projects {
		p.Close()
		delete(m.projects, id)
	}
	m.mu.Unlock()
	return nil
}
