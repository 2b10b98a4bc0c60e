package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/progress"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/ASHISH26940/video-studio-api/pkg/timeline"
)

func TestManagerStartRunsInBackground(t *testing.T) {
	h := newHarness(fakeProber{}, testLimits())
	h.chat.replies = []string{metadataReply, storyboardReply}
	m := NewManager(h.orch, progress.NewService())

	p := m.Start("a lighthouse keeper", "")
	if got, ok := m.Get(p.ID); !ok || got != p {
		t.Fatal("project not registered")
	}

	select {
	case <-p.Tracker.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	if p.State() != StateComplete {
		t.Fatalf("state = %s (%s)", p.State(), p.Err())
	}
	if p.Doc.Doc().AspectRatio != skeleton.Ratio16x9 {
		t.Fatalf("aspect ratio should default to 16:9")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Get(p.ID); ok {
		t.Fatal("shutdown should drop projects")
	}
}

func TestManagerRestore(t *testing.T) {
	h := newHarness(fakeProber{}, testLimits())
	h.history.items["h-9"] = skeleton.Skeleton{
		Theme: "Saved",
		Scenes: []skeleton.Scene{
			{ID: "s1", Duration: skeleton.Fixed(2)},
			{ID: "s2", Duration: skeleton.Auto(), DialogueContent: "hi"},
		},
	}
	m := NewManager(h.orch, progress.NewService())
	defer m.Shutdown(context.Background())
	ctx := context.Background()

	p, err := m.Restore(ctx, "h-9")
	if err != nil {
		t.Fatal(err)
	}
	if p.HistoryID() != "h-9" || p.State() != StateComplete || p.Prompt != "restored prompt" {
		t.Fatalf("restored project = %s %s %q", p.HistoryID(), p.State(), p.Prompt)
	}
	doc := p.Doc.Doc()
	if got := timeline.TotalDuration(doc.Tracks); got != 5 {
		t.Fatalf("tracks not rebuilt, total = %v", got)
	}

	if _, err := m.Apply(ctx, p, document.SetSceneDuration{SceneID: "s1", Duration: skeleton.Fixed(4)}); err != nil {
		t.Fatal(err)
	}
	last, ok := h.history.lastUpdate()
	if !ok || last.id != "h-9" {
		t.Fatalf("user edit should update the restored history item, got %+v", last)
	}

	if _, err := m.Restore(ctx, "missing"); !apperr.IsNotFoundError(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestManagerEvictIdle(t *testing.T) {
	h := newHarness(fakeProber{}, testLimits())
	h.history.items["h-1"] = skeleton.Skeleton{Scenes: []skeleton.Scene{{ID: "s1"}}}
	svc := progress.NewService()
	m := NewManager(h.orch, svc)
	defer m.Shutdown(context.Background())
	ctx := context.Background()

	idle, err := m.Restore(ctx, "h-1")
	if err != nil {
		t.Fatal(err)
	}
	working, err := m.Restore(ctx, "h-1")
	if err != nil {
		t.Fatal(err)
	}
	if !working.claim("video:s1") {
		t.Fatal("claim failed")
	}

	if n := m.EvictIdle(time.Hour); n != 0 {
		t.Fatalf("evicted %d recently used projects", n)
	}
	if n := m.EvictIdle(0); n != 1 {
		t.Fatalf("evicted %d, want only the idle project", n)
	}
	if _, ok := m.Get(idle.ID); ok {
		t.Fatal("idle project still registered")
	}
	if _, ok := svc.GetTracker(idle.ID); ok {
		t.Fatal("idle project tracker kept")
	}
	if _, err := idle.Doc.Apply(ctx, document.RebuildTracks{}); !errors.Is(err, document.ErrClosed) {
		t.Fatalf("evicted document still accepts patches: %v", err)
	}
	if _, ok := m.Get(working.ID); !ok {
		t.Fatal("busy project evicted")
	}

	working.release("video:s1")
	if n := m.EvictIdle(0); n != 1 || m.Len() != 0 {
		t.Fatalf("evicted %d, %d left", n, m.Len())
	}
}

func TestManagerBackgroundTaskKeepsProjectBusy(t *testing.T) {
	h := newHarness(fakeProber{}, testLimits())
	h.history.items["h-1"] = skeleton.Skeleton{Scenes: []skeleton.Scene{{ID: "s1"}}}
	m := NewManager(h.orch, progress.NewService())
	defer m.Shutdown(context.Background())

	p, err := m.Restore(context.Background(), "h-1")
	if err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	finished := make(chan struct{})
	m.Go(p, "hold", func(ctx context.Context) error {
		defer close(finished)
		<-release
		return nil
	})

	if !p.Busy() {
		t.Fatal("project with a running task should be busy")
	}
	if n := m.EvictIdle(0); n != 0 {
		t.Fatalf("evicted %d projects with running work", n)
	}
	close(release)
	<-finished
	deadline := time.Now().Add(time.Second)
	for p.Busy() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := m.EvictIdle(0); n != 1 {
		t.Fatalf("evicted %d after the task finished", n)
	}
}
