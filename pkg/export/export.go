// pkg/export/export.go

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/ASHISH26940/video-studio-api/pkg/media"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	log "github.com/sirupsen/logrus"
)

const (
	FrameRate     = 30
	CanvasShorter = 720

	storedAssetPrefix = "/api/assets/"
	remedy            = "check that ffmpeg is installed and every clip URL is still reachable, then export again"
)

type MediaSource interface {
	Fetch(ctx context.Context, url, dst string) error
}

type AudioDetector interface {
	HasAudio(ctx context.Context, path string) (bool, error)
}

type AssetSource interface {
	GetAsset(ctx context.Context, id string) (*db.Asset, error)
}

// Compositor renders the video scenes of a document into one file with ffmpeg.
type Compositor struct {
	runner  media.Runner
	ffmpeg  string
	source  MediaSource
	audio   AudioDetector
	assets  AssetSource
	baseDir string
}

// NewCompositor builds a compositor. assets may be nil, in which case stored
// narration is left out. Work directories are created under baseDir, or the
// system temp directory when it is empty.
func NewCompositor(runner media.Runner, ffmpegPath string, source MediaSource, audio AudioDetector, assets AssetSource, baseDir string) *Compositor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Compositor{runner: runner, ffmpeg: ffmpegPath, source: source, audio: audio, assets: assets, baseDir: baseDir}
}

// Result is a finished export. Cleanup removes it from disk.
type Result struct {
	Path        string
	Filename    string
	ContentType string
	dir         string
}

func (r *Result) Cleanup() error {
	return os.RemoveAll(r.dir)
}

// Export letterboxes every scene video onto a canvas sized to the document's
// aspect ratio, mixes in each scene's audio, and joins the clips in scene
// order. Progress runs to 80 while clips render, 90 after the final encode
// and 100 when the file is ready. A failed final encode delivers the
// Matroska intermediate instead.
func (c *Compositor) Export(ctx context.Context, doc skeleton.Skeleton, onProgress func(int)) (*Result, error) {
	if onProgress == nil {
		onProgress = func(int) {}
	}
	var scenes []skeleton.Scene
	for _, s := range doc.Scenes {
		if s.VideoURL != "" {
			scenes = append(scenes, s)
		}
	}
	if len(scenes) == 0 {
		return nil, apperr.NewValidationError("nothing to export: no scene has a video yet", nil)
	}

	dir, err := os.MkdirTemp(c.baseDir, "export-*")
	if err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	result, err := c.render(ctx, dir, doc, scenes, onProgress)
	if err != nil {
		os.RemoveAll(dir)
		log.Errorf("Export: %v", err)
		return nil, fmt.Errorf("export failed, %s: %w", remedy, err)
	}
	return result, nil
}

func (c *Compositor) render(ctx context.Context, dir string, doc skeleton.Skeleton, scenes []skeleton.Scene, onProgress func(int)) (*Result, error) {
	width, height := doc.AspectRatio.OrDefault().CanvasSize(CanvasShorter)
	log.Infof("Export: rendering %d clips at %dx%d", len(scenes), width, height)

	segments := make([]string, 0, len(scenes))
	for i, scene := range scenes {
		segment, err := c.renderSegment(ctx, dir, i, scene, width, height)
		if err != nil {
			return nil, fmt.Errorf("scene %d (%s): %w", i+1, scene.ID, err)
		}
		segments = append(segments, segment)
		onProgress((i + 1) * 80 / len(scenes))
	}

	joined := filepath.Join(dir, "joined.mkv")
	if err := c.concat(ctx, dir, segments, joined); err != nil {
		return nil, err
	}

	base := downloadName(doc.Theme)
	result := &Result{dir: dir}
	final := filepath.Join(dir, "final.mp4")
	if err := c.transcode(ctx, joined, final); err != nil {
		log.Warnf("Export: mp4 encode failed, delivering matroska: %v", err)
		result.Path, result.Filename, result.ContentType = joined, base+".mkv", "video/x-matroska"
	} else {
		result.Path, result.Filename, result.ContentType = final, base+".mp4", "video/mp4"
	}
	onProgress(90)
	onProgress(100)
	return result, nil
}

// renderSegment downloads one scene and re-encodes it onto the canvas.
func (c *Compositor) renderSegment(ctx context.Context, dir string, i int, scene skeleton.Scene, width, height int) (string, error) {
	src := filepath.Join(dir, fmt.Sprintf("src-%02d.mp4", i))
	if err := c.source.Fetch(ctx, scene.VideoURL, src); err != nil {
		return "", fmt.Errorf("downloading video: %w", err)
	}

	hasAudio, err := c.audio.HasAudio(ctx, src)
	if err != nil {
		log.Warnf("renderSegment: could not inspect audio of scene %s, treating it as silent: %v", scene.ID, err)
		hasAudio = false
	}
	narration, err := c.narration(ctx, dir, i, scene)
	if err != nil {
		log.Warnf("renderSegment: narration for scene %s unavailable: %v", scene.ID, err)
		narration = ""
	}

	out := filepath.Join(dir, fmt.Sprintf("clip-%02d.mkv", i))
	args := segmentArgs(src, narration, hasAudio, width, height, out)
	if _, err := c.runner.Run(ctx, c.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("rendering clip: %w", err)
	}
	return out, nil
}

// narration writes the scene's spoken audio next to the clip and returns its
// path, or "" when the scene has none.
func (c *Compositor) narration(ctx context.Context, dir string, i int, scene skeleton.Scene) (string, error) {
	if scene.AudioURL == "" {
		return "", nil
	}
	dst := filepath.Join(dir, fmt.Sprintf("narration-%02d.mp3", i))
	if !strings.HasPrefix(scene.AudioURL, storedAssetPrefix) {
		if err := c.source.Fetch(ctx, scene.AudioURL, dst); err != nil {
			return "", err
		}
		return dst, nil
	}
	if c.assets == nil {
		return "", nil
	}
	asset, err := c.assets.GetAsset(ctx, strings.TrimPrefix(scene.AudioURL, storedAssetPrefix))
	if err != nil || asset == nil {
		return "", err
	}
	if err := os.WriteFile(dst, asset.Blob, 0o644); err != nil {
		return "", fmt.Errorf("writing narration: %w", err)
	}
	return dst, nil
}

func letterbox(width, height int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p",
		width, height, width, height, FrameRate)
}

// segmentArgs builds the ffmpeg invocation for one clip. The clip's own audio
// and the narration are mixed when both exist; a clip with neither gets a
// silent track so every segment has the same stream layout for concat.
func segmentArgs(src, narration string, hasAudio bool, width, height int, out string) []string {
	args := []string{"-y", "-i", src}
	filter := "[0:v]" + letterbox(width, height) + "[v];"
	shortest := false

	switch {
	case narration != "" && hasAudio:
		args = append(args, "-i", narration)
		filter += "[0:a][1:a]amix=inputs=2:duration=first:dropout_transition=0[a]"
	case narration != "":
		args = append(args, "-i", narration)
		filter += "[1:a]apad[a]"
		shortest = true
	case hasAudio:
		filter += "[0:a]anull[a]"
	default:
		args = append(args, "-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100")
		filter += "[1:a]anull[a]"
		shortest = true
	}

	args = append(args,
		"-filter_complex", filter,
		"-map", "[v]", "-map", "[a]",
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "20",
		"-c:a", "aac", "-ar", "44100", "-ac", "2",
	)
	if shortest {
		args = append(args, "-shortest")
	}
	return append(args, out)
}

func (c *Compositor) concat(ctx context.Context, dir string, segments []string, out string) error {
	var lines []string
	for _, s := range segments {
		lines = append(lines, fmt.Sprintf("file '%s'", filepath.Base(s)))
	}
	list := filepath.Join(dir, "segments.txt")
	if err := os.WriteFile(list, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing concat list: %w", err)
	}
	if _, err := c.runner.Run(ctx, c.ffmpeg, "-y", "-f", "concat", "-safe", "0", "-i", list, "-c", "copy", out); err != nil {
		return fmt.Errorf("joining clips: %w", err)
	}
	return nil
}

func (c *Compositor) transcode(ctx context.Context, src, out string) error {
	_, err := c.runner.Run(ctx, c.ffmpeg, "-y", "-i", src,
		"-c:v", "libx264", "-preset", "ultrafast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		out,
	)
	return err
}

var unsafeName = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// downloadName turns the theme into a file name, falling back to "video".
func downloadName(theme string) string {
	name := strings.TrimSpace(unsafeName.ReplaceAllString(theme, "_"))
	if name == "" || strings.Trim(name, "_.") == "" {
		return "video"
	}
	return name
}
