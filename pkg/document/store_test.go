package document

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/ASHISH26940/video-studio-api/pkg/timeline"
	"github.com/google/go-cmp/cmp"
)

func manyScenes(n int) []skeleton.Scene {
	out := make([]skeleton.Scene, n)
	for i := range out {
		out[i] = skeleton.Scene{ID: fmt.Sprintf("s%d", i), VisualDescription: "shot", Duration: skeleton.Fixed(3)}
	}
	return out
}

func TestConcurrentPatchesAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := NewStore(skeleton.Skeleton{})
	defer store.Close()

	const n = 50
	if _, err := store.Apply(ctx, ReplaceScenes{Scenes: manyScenes(n)}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			url := "http://img/" + id
			if _, err := store.Apply(ctx, PatchEntity{Collection: skeleton.Scenes, ID: id, Fields: skeleton.Fields{ImageURL: &url}}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	snap := store.Snapshot()
	if snap.Version != n+1 {
		t.Fatalf("version = %d, want %d", snap.Version, n+1)
	}
	for _, s := range snap.Doc.Scenes {
		if s.ImageURL != "http://img/"+s.ID {
			t.Fatalf("scene %s lost its image update", s.ID)
		}
	}
	for _, c := range snap.Doc.Tracks[0].Clips {
		if c.ImageURL == "" {
			t.Fatalf("clip %s was not refreshed from its scene", c.ID)
		}
	}
}

func TestSetSceneDurationRipplesTracks(t *testing.T) {
	ctx := context.Background()
	scenes := []skeleton.Scene{
		{ID: "a", Duration: skeleton.Fixed(3), AudioDesign: "rain"},
		{ID: "b", Duration: skeleton.Auto(), DialogueContent: "hi"},
		{ID: "c", Duration: skeleton.Fixed(5), AudioDesign: "wind"},
	}
	store := NewStore(skeleton.Skeleton{})
	defer store.Close()
	if _, err := store.Apply(ctx, ReplaceScenes{Scenes: scenes}); err != nil {
		t.Fatal(err)
	}
	snap, err := store.Apply(ctx, SetSceneDuration{SceneID: "b", Duration: skeleton.Fixed(4)})
	if err != nil {
		t.Fatal(err)
	}

	changed := append([]skeleton.Scene(nil), scenes...)
	changed[1].Duration = skeleton.Fixed(4)
	if diff := cmp.Diff(timeline.RebuildTracks(changed), snap.Doc.Tracks); diff != "" {
		t.Fatalf("tracks (-want +got):\n%s", diff)
	}
	if got := timeline.TotalDuration(snap.Doc.Tracks); got != 12 {
		t.Fatalf("total = %v", got)
	}
}

func TestPatchOnMissingEntityIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewStore(skeleton.Skeleton{Characters: []skeleton.Character{{ID: "c1"}}})
	defer store.Close()

	before := store.Doc()
	url := "http://x"
	after, err := store.Apply(ctx, PatchEntity{Collection: skeleton.Characters, ID: "gone", Fields: skeleton.Fields{ImageURL: &url}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, after.Doc, cmp.AllowUnexported(skeleton.Duration{})); diff != "" {
		t.Fatalf("unexpected change:\n%s", diff)
	}
}

func TestSubscribeSeesLatest(t *testing.T) {
	ctx := context.Background()
	store := NewStore(skeleton.Skeleton{})
	defer store.Close()

	updates, cancel := store.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		theme := fmt.Sprintf("theme-%d", i)
		if _, err := store.Apply(ctx, MergeMetadata{Metadata: skeleton.Metadata{Theme: &theme}}); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Doc.Theme == "theme-4" {
				return
			}
		case <-deadline:
			t.Fatal("latest snapshot never delivered")
		}
	}
}

func TestResetAndResize(t *testing.T) {
	ctx := context.Background()
	store := NewStore(skeleton.Skeleton{})
	defer store.Close()

	restored := skeleton.Skeleton{Theme: "restored", Scenes: manyScenes(2)}
	restored.Tracks = timeline.RebuildTracks(restored.Scenes)
	if _, err := store.Apply(ctx, Reset{Doc: restored}); err != nil {
		t.Fatal(err)
	}
	snap, err := store.Apply(ctx, ResizeClip{ClipID: "v-s0", Edge: timeline.EdgeRight, Delta: -1})
	if err != nil {
		t.Fatal(err)
	}
	if snap.Doc.Theme != "restored" || snap.Doc.Tracks[0].Clips[0].Duration != 2 {
		t.Fatalf("unexpected doc %+v", snap.Doc.Tracks[0].Clips[0])
	}
	if restored.Tracks[0].Clips[0].Duration != 3 {
		t.Fatal("reset must not alias the caller's document")
	}
}

func TestApplyAfterClose(t *testing.T) {
	store := NewStore(skeleton.Skeleton{})
	updates, _ := store.Subscribe()
	store.Close()

	if _, err := store.Apply(context.Background(), RebuildTracks{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, ok := <-updates; ok {
		t.Fatal("subscription should be closed")
	}
	store.Close()
}
