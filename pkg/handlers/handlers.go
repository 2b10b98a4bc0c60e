package handlers

import (
	"context"
	"net/http"

	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/ASHISH26940/video-studio-api/pkg/export"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/media"
	"github.com/ASHISH26940/video-studio-api/pkg/pipeline"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

// Generator is the capability surface proxied by the /api endpoints.
// *genclient.Client satisfies it.
type Generator interface {
	ChatStream(ctx context.Context, messages []genclient.Message, jsonMode bool, onChunk func(string)) error
	GenerateImage(ctx context.Context, prompt, size string, refs []string) (genclient.ImageResult, error)
	GenerateVideo(ctx context.Context, req genclient.VideoRequest) (genclient.VideoTask, error)
	QueryVideoStatus(ctx context.Context, taskID string) (genclient.VideoStatus, error)
	Synthesize(ctx context.Context, req genclient.SpeechRequest) ([]byte, error)
}

type HistoryRepository interface {
	ListHistory(ctx context.Context, limit int) ([]db.HistoryItem, error)
	LoadHistory(ctx context.Context, id string) (*db.HistoryItem, skeleton.Skeleton, bool, error)
	DeleteHistory(ctx context.Context, id string) error
}

type AssetGetter interface {
	GetAsset(ctx context.Context, id string) (*db.Asset, error)
}

type Exporter interface {
	Export(ctx context.Context, doc skeleton.Skeleton, onProgress func(int)) (*export.Result, error)
}

type MediaOpener interface {
	Open(ctx context.Context, url string) (*http.Response, error)
}

// Handlers struct to hold dependencies
type Handlers struct {
	Gen      Generator
	Manager  *pipeline.Manager
	History  HistoryRepository
	Assets   AssetGetter
	Exporter Exporter
	Media    MediaOpener

	// ProxyHosts limits ProxyMedia to the media hosts generation returns.
	ProxyHosts media.HostAllowList
}

// NewHandlers creates a new instance of Handlers
func NewHandlers(gen Generator, manager *pipeline.Manager, history HistoryRepository, assets AssetGetter, exporter Exporter, opener MediaOpener) *Handlers {
	return &Handlers{
		Gen:      gen,
		Manager:  manager,
		History:  history,
		Assets:   assets,
		Exporter: exporter,
		Media:    opener,
	}
}
