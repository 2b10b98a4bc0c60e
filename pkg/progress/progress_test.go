package progress

import (
	"testing"
	"time"
)

func TestProgressIsMonotonic(t *testing.T) {
	tr := NewService().CreateTracker("p1")
	tr.Start("generating_assets", "go")
	tr.Update(40, "")
	tr.Update(10, "late report")
	got := tr.Current()
	if got.Progress != 40 || got.Message != "late report" {
		t.Fatalf("got %+v", got)
	}
	tr.Update(250, "")
	if tr.Current().Progress != 100 {
		t.Fatal("progress must cap at 100")
	}
}

func TestIncrementReportsFullCounterOnce(t *testing.T) {
	tr := NewService().CreateTracker("p1")
	tr.Start("generating_assets", "")
	tr.SetTotal(3)

	full := []bool{tr.Increment("a"), tr.Increment("b"), tr.Increment("c"), tr.Increment("d")}
	want := []bool{false, false, true, false}
	for i := range want {
		if full[i] != want[i] {
			t.Fatalf("Increment #%d = %v, want %v", i+1, full[i], want[i])
		}
	}
	if cur := tr.Current(); cur.Completed != 3 || cur.Progress != 100 {
		t.Fatalf("got %+v", cur)
	}
}

func TestSubscribeIsPrimedAndNonBlocking(t *testing.T) {
	tr := NewService().CreateTracker("p1")
	updates, cancel := tr.Subscribe()
	defer cancel()

	first := <-updates
	if first.TaskID != "p1" || first.Status != StatusRunning {
		t.Fatalf("unexpected first update %+v", first)
	}
	// far more updates than the buffer holds must not block the producer
	for i := 0; i < 100; i++ {
		tr.Update(i, "")
	}
	tr.Complete("")

	select {
	case <-tr.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
	if tr.Current().Status != StatusCompleted {
		t.Fatal("not completed")
	}
}

func TestCompleteAndFailAreOneShot(t *testing.T) {
	tr := NewService().CreateTracker("p1")
	tr.Complete("ok")
	tr.Fail("boom")
	tr.Complete("again")
	if cur := tr.Current(); cur.Status != StatusCompleted || cur.Message != "ok" {
		t.Fatalf("got %+v", cur)
	}

	tr.Start("generating_videos", "reopened")
	if cur := tr.Current(); cur.Status != StatusRunning || cur.Progress != 0 {
		t.Fatalf("restart did not reopen: %+v", cur)
	}
	select {
	case <-tr.Done():
		t.Fatal("reopened tracker reports done")
	default:
	}
	tr.Fail("boom")
	if cur := tr.Current(); cur.Status != StatusFailed || cur.Message != "failed: boom" {
		t.Fatalf("got %+v", cur)
	}
}

func TestServiceCleanup(t *testing.T) {
	s := NewService()
	s.CreateTracker("running")
	s.CreateTracker("done").Complete("")

	if s.CreateTracker("running") != s.CreateTracker("running") {
		t.Fatal("CreateTracker must return the existing tracker")
	}
	if n := s.CleanupFinished(0); n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	if _, ok := s.GetTracker("done"); ok {
		t.Fatal("finished tracker not removed")
	}
	if _, ok := s.GetTracker("running"); !ok {
		t.Fatal("running tracker removed")
	}
}
