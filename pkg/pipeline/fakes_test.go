package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/config"
	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

// fakeChat replies to the n-th stream with replies[n], delivered in small chunks.
type fakeChat struct {
	mu      sync.Mutex
	replies []string
	calls   [][]genclient.Message
}

func (f *fakeChat) ChatStream(ctx context.Context, messages []genclient.Message, jsonMode bool, onChunk func(string)) error {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, messages)
	f.mu.Unlock()
	if n >= len(f.replies) {
		return apperr.NewTransportError("no scripted reply", 500, nil)
	}
	reply := f.replies[n]
	for len(reply) > 0 {
		size := 7
		if size > len(reply) {
			size = len(reply)
		}
		onChunk(reply[:size])
		reply = reply[size:]
	}
	return nil
}

type imageCall struct {
	prompt string
	size   string
	refs   []string
	url    string
}

type fakeImages struct {
	mu     sync.Mutex
	calls  []imageCall
	failOn string
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt, size string, refs []string) (genclient.ImageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return genclient.ImageResult{}, apperr.NewTransportError("upstream refused", 400, nil)
	}
	url := fmt.Sprintf("https://img.test/%d.png", len(f.calls)+1)
	f.calls = append(f.calls, imageCall{prompt: prompt, size: size, refs: append([]string(nil), refs...), url: url})
	return genclient.ImageResult{URL: url}, nil
}

func (f *fakeImages) find(substr string) (imageCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.Contains(c.prompt, substr) {
			return c, true
		}
	}
	return imageCall{}, false
}

func (f *fakeImages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeVideos answers every status query with statuses[i], repeating the last
// entry once the list runs out.
type fakeVideos struct {
	mu        sync.Mutex
	requests  []genclient.VideoRequest
	statuses  []genclient.VideoStatus
	queries   int
	active    int
	maxActive int
	hold      time.Duration
}

func (f *fakeVideos) GenerateVideo(ctx context.Context, req genclient.VideoRequest) (genclient.VideoTask, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	id := fmt.Sprintf("task-%d", len(f.requests))
	f.mu.Unlock()

	if f.hold > 0 {
		time.Sleep(f.hold)
	}
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return genclient.VideoTask{ID: id}, nil
}

func (f *fakeVideos) QueryVideoStatus(ctx context.Context, taskID string) (genclient.VideoStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.queries
	f.queries++
	if len(f.statuses) == 0 {
		return genclient.VideoStatus{Status: genclient.JobSucceeded, VideoURL: "https://vid.test/" + taskID + ".mp4"}, nil
	}
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

func (f *fakeVideos) requestFor(firstFrame string) (genclient.VideoRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.FirstFrameURL == firstFrame {
			return r, true
		}
	}
	return genclient.VideoRequest{}, false
}

type fakeSpeech struct {
	mu    sync.Mutex
	texts []string
	voice []string
}

func (f *fakeSpeech) Synthesize(ctx context.Context, req genclient.SpeechRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, req.Text)
	f.voice = append(f.voice, req.VoiceID)
	return []byte("ID3" + req.Text), nil
}

// fakeProber reports a fixed duration for every audio payload and another
// for every video file.
type fakeProber struct {
	seconds  float64
	err      error
	video    float64
	videoErr error
}

func (f fakeProber) MeasureAudio(ctx context.Context, data []byte) (float64, error) {
	return f.seconds, f.err
}

func (f fakeProber) Duration(ctx context.Context, path string) (float64, error) {
	return f.video, f.videoErr
}

type historyUpdate struct {
	id        string
	doc       skeleton.Skeleton
	thumbnail string
}

type fakeHistory struct {
	mu      sync.Mutex
	created []skeleton.Skeleton
	updates []historyUpdate
	items   map[string]skeleton.Skeleton
}

func (f *fakeHistory) CreateHistory(ctx context.Context, prompt string, doc skeleton.Skeleton) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, doc)
	return fmt.Sprintf("history-%d", len(f.created)), nil
}

func (f *fakeHistory) UpdateHistory(ctx context.Context, id string, doc skeleton.Skeleton, thumbnail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, historyUpdate{id: id, doc: doc, thumbnail: thumbnail})
	return nil
}

func (f *fakeHistory) LoadHistory(ctx context.Context, id string) (*db.HistoryItem, skeleton.Skeleton, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.items[id]
	if !ok {
		return nil, skeleton.Skeleton{}, false, nil
	}
	return &db.HistoryItem{Prompt: "restored prompt"}, doc, true, nil
}

func (f *fakeHistory) lastUpdate() (historyUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return historyUpdate{}, false
	}
	return f.updates[len(f.updates)-1], true
}

type fakeAssets struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (f *fakeAssets) PutAsset(ctx context.Context, id string, kind db.AssetType, contentType string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blobs == nil {
		f.blobs = make(map[string][]byte)
	}
	f.blobs[id] = data
	return nil
}

// sleepRecorder replaces real waiting in tests.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waits)
}

type harness struct {
	chat    *fakeChat
	images  *fakeImages
	videos  *fakeVideos
	speech  *fakeSpeech
	history *fakeHistory
	assets  *fakeAssets
	sleeper *sleepRecorder
	orch    *Orchestrator
}

func newHarness(prober fakeProber, limits config.Limits) *harness {
	h := &harness{
		chat:    &fakeChat{},
		images:  &fakeImages{},
		videos:  &fakeVideos{},
		speech:  &fakeSpeech{},
		history: &fakeHistory{items: map[string]skeleton.Skeleton{}},
		assets:  &fakeAssets{},
		sleeper: &sleepRecorder{},
	}
	ids := 0
	var idMu sync.Mutex
	h.orch = NewOrchestrator(Deps{
		Chat:    h.chat,
		Images:  h.images,
		Videos:  h.videos,
		Speech:  h.speech,
		Prober:  prober,
		History: h.history,
		Assets:  h.assets,
	}, limits, WithSleep(h.sleeper.sleep), WithIDGenerator(func() string {
		idMu.Lock()
		defer idMu.Unlock()
		ids++
		return fmt.Sprintf("gen-%d", ids)
	}))
	return h
}

func testLimits() config.Limits {
	l := config.DefaultLimits()
	l.AutoVideo = false
	return l
}
