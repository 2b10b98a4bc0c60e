// pkg/pipeline/project.go

package pipeline

import (
	"sync"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/progress"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

type State string

const (
	StateIdle                State = "idle"
	StateStreamingMetadata   State = "streaming_metadata"
	StateStreamingStoryboard State = "streaming_storyboard"
	StateGeneratingAssets    State = "generating_assets"
	StateComplete            State = "complete"
	StateFailed              State = "failed"
)

// Project is one live document together with the bookkeeping of its run.
// The document itself is only ever changed through Doc.Apply.
type Project struct {
	ID      string
	Prompt  string
	Doc     *document.Store
	Tracker *progress.Tracker

	// saveMu serializes history writes so a project is created only once.
	saveMu sync.Mutex

	mu        sync.Mutex
	state     State
	lastErr   string
	historyID string
	images    map[string]string
	inFlight  map[string]bool
	tasks     int
	active    time.Time
}

// NewProject wraps an initial document. The tracker is optional.
func NewProject(id, prompt string, initial skeleton.Skeleton, tracker *progress.Tracker) *Project {
	return &Project{
		ID:       id,
		Prompt:   prompt,
		Doc:      document.NewStore(initial),
		Tracker:  tracker,
		state:    StateIdle,
		images:   make(map[string]string),
		inFlight: make(map[string]bool),
		active:   time.Now(),
	}
}

func (p *Project) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err is the message of the failure that moved the project to StateFailed.
func (p *Project) Err() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Project) setState(s State) {
	p.mu.Lock()
	p.state = s
	if s != StateFailed {
		p.lastErr = ""
	}
	p.mu.Unlock()
}

func (p *Project) fail(err error) {
	p.mu.Lock()
	p.state = StateFailed
	p.lastErr = err.Error()
	p.mu.Unlock()
	if p.Tracker != nil {
		p.Tracker.Fail(err.Error())
	}
}

func (p *Project) HistoryID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.historyID
}

func (p *Project) setHistoryID(id string) {
	p.mu.Lock()
	p.historyID = id
	p.mu.Unlock()
}

// cacheImage remembers a generated roster image so later waves can reference
// it before the document merge is visible to them.
func (p *Project) cacheImage(entityID, url string) {
	p.mu.Lock()
	p.images[entityID] = url
	p.mu.Unlock()
}

func (p *Project) cachedImage(entityID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.images[entityID]
}

// claim marks a job key as running. It returns false when the same job is
// already in flight, so two triggers never launch duplicate work.
func (p *Project) claim(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[key] {
		return false
	}
	p.inFlight[key] = true
	return true
}

func (p *Project) release(key string) {
	p.mu.Lock()
	delete(p.inFlight, key)
	p.mu.Unlock()
}

func (p *Project) touch() {
	p.mu.Lock()
	p.active = time.Now()
	p.mu.Unlock()
}

func (p *Project) beginTask() {
	p.mu.Lock()
	p.tasks++
	p.active = time.Now()
	p.mu.Unlock()
}

func (p *Project) endTask() {
	p.mu.Lock()
	p.tasks--
	p.active = time.Now()
	p.mu.Unlock()
}

// Busy reports whether the pipeline or any job is still working on p.
func (p *Project) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateStreamingMetadata, StateStreamingStoryboard, StateGeneratingAssets:
		return true
	}
	return p.tasks > 0 || len(p.inFlight) > 0
}

// IdleFor is how long ago p was last used.
func (p *Project) IdleFor() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.active)
}

func (p *Project) report(progressValue int, message string) {
	if p.Tracker != nil {
		p.Tracker.Update(progressValue, message)
	}
}

func (p *Project) startStage(stage, message string) {
	if p.Tracker != nil {
		p.Tracker.Start(stage, message)
	}
}

// Close stops the document reducer.
func (p *Project) Close() {
	p.Doc.Close()
}
