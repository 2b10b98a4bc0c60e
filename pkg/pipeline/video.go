// pkg/pipeline/video.go

package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const stageVideos = "videos"

type videoJob struct {
	scene     skeleton.Scene
	lastFrame string
}

// GenerateVideos submits a video job for every scene that has an image but no
// video yet, at most VideoConcurrency at a time. Each scene is chained to the
// next scene's image as its last frame; the final scene has none.
func (o *Orchestrator) GenerateVideos(ctx context.Context, p *Project) error {
	doc := p.Doc.Doc()
	var jobs []videoJob
	for i, s := range doc.Scenes {
		if s.ImageURL == "" {
			entityLog(p, stageVideos, s.ID).Info("GenerateVideos: skipping scene without an image")
			continue
		}
		if s.VideoURL != "" {
			continue
		}
		job := videoJob{scene: s}
		if i+1 < len(doc.Scenes) {
			job.lastFrame = doc.Scenes[i+1].ImageURL
		}
		jobs = append(jobs, job)
	}

	p.startStage(stageVideos, fmt.Sprintf("generating %d videos", len(jobs)))
	if p.Tracker != nil {
		p.Tracker.SetTotal(len(jobs))
	}

	g := new(errgroup.Group)
	g.SetLimit(o.limits.VideoConcurrency)
	for _, job := range jobs {
		job := job
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_ = o.sceneVideo(ctx, p, doc.AspectRatio, job.scene, job.lastFrame)
			if p.Tracker != nil {
				p.Tracker.Increment("scene " + job.scene.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	o.saveHistory(ctx, p)
	if p.Tracker != nil && ctx.Err() == nil {
		p.Tracker.Complete("videos finished")
	}
	return ctx.Err()
}

// sceneVideo submits and polls one scene. Every failure, including a poll
// timeout, is logged here and leaves the scene without a video.
func (o *Orchestrator) sceneVideo(ctx context.Context, p *Project, ratio skeleton.AspectRatio, scene skeleton.Scene, lastFrame string) error {
	logger := entityLog(p, stageVideos, scene.ID)
	key := "video:" + scene.ID
	if !p.claim(key) {
		logger.Debug("sceneVideo: already in flight")
		return nil
	}
	defer p.release(key)

	task, err := o.deps.Videos.GenerateVideo(ctx, genclient.VideoRequest{
		Prompt:        videoPrompt(scene),
		FirstFrameURL: scene.ImageURL,
		LastFrameURL:  lastFrame,
		Duration:      genclient.ClampVideoDuration(scene.Duration),
		Ratio:         ratio.OrDefault(),
	})
	if err != nil {
		logger.Errorf("sceneVideo: submission failed: %v", err)
		return err
	}
	logger = logger.WithField("task", task.ID)

	status, err := o.PollVideo(ctx, task.ID)
	if err != nil {
		if apperr.IsJobTimeoutError(err) {
			logger.Warnf("sceneVideo: giving up: %v", err)
		} else {
			logger.Errorf("sceneVideo: job did not succeed: %v", err)
		}
		return err
	}

	patch := videoPatch(scene.ID, status.VideoURL, o.measureVideo(ctx, logger, status.VideoURL))
	if _, err := p.Doc.Apply(ctx, patch); err != nil {
		return err
	}
	logger.Info("sceneVideo: video attached")
	return nil
}

// measureVideo probes the finished clip. It returns 0 when the length is
// unknown, in which case the scene keeps its duration.
func (o *Orchestrator) measureVideo(ctx context.Context, logger *log.Entry, url string) float64 {
	if o.deps.Prober == nil {
		return 0
	}
	seconds, err := o.deps.Prober.Duration(ctx, url)
	if err != nil {
		logger.Warnf("sceneVideo: could not measure video, keeping duration: %v", err)
		return 0
	}
	return seconds
}

// videoPatch attaches the video and, when its measured length differs from the
// scene's current duration, ripples the timeline to the clip's real length.
func videoPatch(sceneID, url string, seconds float64) document.PatchFunc {
	return func(doc skeleton.Skeleton) skeleton.Skeleton {
		doc = document.SetSceneMedia{SceneID: sceneID, VideoURL: skeleton.String(url)}.Apply(doc)
		if seconds <= 0 {
			return doc
		}
		scene, i := doc.SceneByID(sceneID)
		if i < 0 {
			return doc
		}
		measured := math.Ceil(seconds)
		if current, ok := scene.Duration.Fixed(); ok && current == measured {
			return doc
		}
		return document.SetSceneDuration{SceneID: sceneID, Duration: skeleton.Fixed(measured)}.Apply(doc)
	}
}

// PollVideo queries a video job until it reaches a terminal state. It makes
// at most PollAttempts queries, waiting PollInterval between them, and then
// returns a JobTimeoutError. A failed job returns a JobFailedError.
func (o *Orchestrator) PollVideo(ctx context.Context, taskID string) (genclient.VideoStatus, error) {
	for attempt := 1; attempt <= o.limits.PollAttempts; attempt++ {
		status, err := o.deps.Videos.QueryVideoStatus(ctx, taskID)
		if err != nil {
			return status, err
		}
		switch status.Status {
		case genclient.JobSucceeded:
			if status.VideoURL == "" {
				return status, apperr.NewJobFailedError(fmt.Sprintf("video task %s succeeded without a video url", taskID))
			}
			return status, nil
		case genclient.JobFailed:
			msg := fmt.Sprintf("video task %s failed", taskID)
			if status.Error != "" {
				msg += ": " + status.Error
			}
			return status, apperr.NewJobFailedError(msg)
		}
		if attempt == o.limits.PollAttempts {
			break
		}
		if err := o.sleep(ctx, o.limits.PollInterval); err != nil {
			return status, err
		}
	}
	return genclient.VideoStatus{}, apperr.NewJobTimeoutError(taskID, o.limits.PollAttempts)
}
