// pkg/pipeline/orchestrator.go

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/config"
	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/extract"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Chat interface {
	ChatStream(ctx context.Context, messages []genclient.Message, jsonMode bool, onChunk func(string)) error
}

type Images interface {
	GenerateImage(ctx context.Context, prompt, size string, refs []string) (genclient.ImageResult, error)
}

type Videos interface {
	GenerateVideo(ctx context.Context, req genclient.VideoRequest) (genclient.VideoTask, error)
	QueryVideoStatus(ctx context.Context, taskID string) (genclient.VideoStatus, error)
}

type Speech interface {
	Synthesize(ctx context.Context, req genclient.SpeechRequest) ([]byte, error)
}

// DurationProber measures playing time in seconds, either of an encoded audio
// payload or of a media file reachable by path or URL.
type DurationProber interface {
	MeasureAudio(ctx context.Context, data []byte) (float64, error)
	Duration(ctx context.Context, path string) (float64, error)
}

type HistoryStore interface {
	CreateHistory(ctx context.Context, prompt string, doc skeleton.Skeleton) (string, error)
	UpdateHistory(ctx context.Context, id string, doc skeleton.Skeleton, thumbnail string) error
	LoadHistory(ctx context.Context, id string) (*db.HistoryItem, skeleton.Skeleton, bool, error)
}

type AssetStore interface {
	PutAsset(ctx context.Context, id string, kind db.AssetType, contentType string, data []byte) error
}

// Deps are the collaborators of an Orchestrator. History and Assets may be
// nil, in which case nothing is persisted.
type Deps struct {
	Chat    Chat
	Images  Images
	Videos  Videos
	Speech  Speech
	Prober  DurationProber
	History HistoryStore
	Assets  AssetStore
}

// Orchestrator drives projects through the generation stages. It holds no
// per-project state, so one instance serves every project.
type Orchestrator struct {
	deps   Deps
	limits config.Limits
	sleep  func(ctx context.Context, d time.Duration) error
	newID  func() string
}

type Option func(*Orchestrator)

// WithSleep replaces the wait used between poll attempts and audio requests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// WithIDGenerator replaces the generator used for missing entity ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

func NewOrchestrator(deps Deps, limits config.Limits, opts ...Option) *Orchestrator {
	if limits.VideoConcurrency < 1 {
		limits.VideoConcurrency = 1
	}
	if limits.PollAttempts < 1 {
		limits.PollAttempts = 1
	}
	o := &Orchestrator{
		deps:   deps,
		limits: limits,
		sleep:  sleepContext,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func entityLog(p *Project, stage, entityID string) *log.Entry {
	fields := log.Fields{"project": p.ID, "stage": stage}
	if entityID != "" {
		fields["entity"] = entityID
	}
	return log.WithFields(fields)
}

// Run takes a project from its prompt to a finished storyboard with images.
// A stage failure moves the project to StateFailed and leaves whatever the
// document already holds in place.
func (o *Orchestrator) Run(ctx context.Context, p *Project) error {
	logger := entityLog(p, "run", "")
	logger.Infof("Run: starting for prompt %q", p.Prompt)

	p.setState(StateStreamingMetadata)
	p.startStage(string(StateStreamingMetadata), "writing the story skeleton")
	if err := o.streamMetadata(ctx, p); err != nil {
		logger.Errorf("Run: metadata stage failed: %v", err)
		p.fail(err)
		return err
	}

	p.setState(StateStreamingStoryboard)
	p.startStage(string(StateStreamingStoryboard), "writing the storyboard")
	if err := o.streamStoryboard(ctx, p); err != nil {
		logger.Errorf("Run: storyboard stage failed: %v", err)
		p.fail(err)
		return err
	}
	o.saveHistory(ctx, p)

	p.setState(StateGeneratingAssets)
	o.generateImages(ctx, p)

	if o.limits.AutoVideo {
		if err := o.GenerateVideos(ctx, p); err != nil {
			logger.Warnf("Run: video wave ended early: %v", err)
		}
	}

	if err := ctx.Err(); err != nil {
		p.fail(err)
		return err
	}
	p.setState(StateComplete)
	if p.Tracker != nil {
		p.Tracker.Complete("storyboard and images are ready")
	}
	logger.Info("Run: complete")
	return nil
}

type metadataPayload struct {
	Theme         string                 `json:"theme"`
	StoryOverview string                 `json:"storyOverview"`
	ArtStyle      string                 `json:"artStyle"`
	Characters    []skeleton.Character   `json:"characters"`
	SceneDesigns  []skeleton.SceneDesign `json:"sceneDesigns"`
}

func (o *Orchestrator) streamMetadata(ctx context.Context, p *Project) error {
	var buf strings.Builder
	err := o.deps.Chat.ChatStream(ctx, metadataMessages(p.Prompt), true, func(chunk string) {
		buf.WriteString(chunk)
		partial := extract.ExtractPartial(buf.String())
		if len(partial) == 0 {
			return
		}
		if _, err := p.Doc.Apply(ctx, document.MergeMetadata{Metadata: skeleton.MetadataFromMap(partial)}); err != nil {
			entityLog(p, "metadata", "").Debugf("streamMetadata: dropping partial merge: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("streaming metadata: %w", err)
	}

	final, err := extract.Extract[metadataPayload](buf.String())
	if err != nil {
		return err
	}
	md := skeleton.Metadata{
		Theme:         &final.Theme,
		StoryOverview: &final.StoryOverview,
		ArtStyle:      &final.ArtStyle,
		Characters:    orEmpty(final.Characters),
		SceneDesigns:  orEmpty(final.SceneDesigns),
	}
	_, err = p.Doc.Apply(ctx, document.PatchFunc(func(doc skeleton.Skeleton) skeleton.Skeleton {
		doc = skeleton.MergeMetadata(doc, md)
		doc = skeleton.NormalizeRoster(doc, o.newID)
		doc.Scenes = nil
		doc.Tracks = nil
		return doc
	}))
	return err
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (o *Orchestrator) streamStoryboard(ctx context.Context, p *Project) error {
	messages, err := storyboardMessages(p.Doc.Doc())
	if err != nil {
		return err
	}

	var buf strings.Builder
	err = o.deps.Chat.ChatStream(ctx, messages, false, func(chunk string) {
		buf.WriteString(chunk)
		elems := extract.ExtractPartialArray(buf.String())
		if len(elems) == 0 {
			return
		}
		scenes := skeleton.ScenesFromPartial(elems)
		if _, err := p.Doc.Apply(ctx, document.PatchFunc(func(doc skeleton.Skeleton) skeleton.Skeleton {
			return skeleton.WithScenes(doc, scenes)
		})); err != nil {
			entityLog(p, "storyboard", "").Debugf("streamStoryboard: dropping partial merge: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("streaming storyboard: %w", err)
	}

	scenes, err := decodeStoryboard(buf.String())
	if err != nil {
		return err
	}
	scenes = skeleton.NormalizeScenes(scenes, genclient.ResolveVoiceID, o.newID)
	_, err = p.Doc.Apply(ctx, document.ReplaceScenes{Scenes: scenes})
	return err
}

// decodeStoryboard accepts a bare array of scenes or an object wrapping one
// under "scenes", which models in JSON mode tend to produce.
func decodeStoryboard(text string) ([]skeleton.Scene, error) {
	raw, err := extract.Candidate(text)
	if err != nil {
		return nil, err
	}
	var scenes []skeleton.Scene
	if err := json.Unmarshal(raw, &scenes); err == nil {
		return scenes, nil
	}
	var wrapped struct {
		Scenes []skeleton.Scene `json:"scenes"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Scenes == nil {
		return nil, apperr.NewParseError("storyboard is not a list of scenes", err)
	}
	return wrapped.Scenes, nil
}

// saveHistory creates the project's history item on first call and rewrites
// its snapshot afterwards. Failures are logged; history is best effort.
func (o *Orchestrator) saveHistory(ctx context.Context, p *Project) {
	if o.deps.History == nil {
		return
	}
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	doc := p.Doc.Doc()
	logger := entityLog(p, "history", p.HistoryID())
	id := p.HistoryID()
	if id == "" {
		newID, err := o.deps.History.CreateHistory(ctx, p.Prompt, doc)
		if err != nil {
			logger.Errorf("saveHistory: could not create history item: %v", err)
			return
		}
		p.setHistoryID(newID)
		logger.Infof("saveHistory: created history item %s", newID)
		return
	}

	var thumbnail string
	if len(doc.Scenes) > 0 {
		thumbnail = doc.Scenes[0].ImageURL
	}
	if err := o.deps.History.UpdateHistory(ctx, id, doc, thumbnail); err != nil {
		logger.Errorf("saveHistory: could not update history item: %v", err)
	}
}

// SaveHistory persists the current document now, as after a user edit.
func (o *Orchestrator) SaveHistory(ctx context.Context, p *Project) {
	o.saveHistory(ctx, p)
}
