// pkg/genclient/speech.go

package genclient

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultSpeechURL = "https://openspeech.bytedance.com/api/v1/tts"
	DefaultVoiceID   = "BV001_streaming"

	speechSuccessCode = 3000
)

// SpeechRequest asks for one line of narration. Zero ratios mean 1.0.
type SpeechRequest struct {
	Text        string  `json:"text" binding:"required"`
	VoiceID     string  `json:"voice_type"`
	SpeedRatio  float64 `json:"speed_ratio" binding:"omitempty,min=0.2,max=3"`
	PitchRatio  float64 `json:"pitch_ratio" binding:"omitempty,min=0.1,max=3"`
	VolumeRatio float64 `json:"volume_ratio" binding:"omitempty,min=0.1,max=3"`
}

type speechBody struct {
	App struct {
		AppID   string `json:"appid"`
		Token   string `json:"token"`
		Cluster string `json:"cluster"`
	} `json:"app"`
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	Audio struct {
		VoiceType   string  `json:"voice_type"`
		Encoding    string  `json:"encoding"`
		SpeedRatio  float64 `json:"speed_ratio"`
		VolumeRatio float64 `json:"volume_ratio"`
		PitchRatio  float64 `json:"pitch_ratio"`
	} `json:"audio"`
	Request struct {
		ReqID     string `json:"reqid"`
		Text      string `json:"text"`
		TextType  string `json:"text_type"`
		Operation string `json:"operation"`
	} `json:"request"`
}

type speechResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Synthesize returns MP3 audio for req.Text.
func (c *Client) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if c.cfg.SpeechAppID == "" || c.cfg.SpeechToken == "" {
		return nil, apperr.NewConfigurationError("speech credentials not configured (VOLC_TTS_APP_ID, VOLC_TTS_TOKEN)")
	}
	if req.Text == "" {
		return nil, apperr.NewValidationError("text is required", nil)
	}
	if err := c.speechLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("speech rate limit wait failed: %w", err)
	}

	var body speechBody
	body.App.AppID = c.cfg.SpeechAppID
	body.App.Token = c.cfg.SpeechToken
	body.App.Cluster = c.cfg.SpeechCluster
	body.User.UID = "studio"
	body.Audio.VoiceType = orDefault(req.VoiceID, DefaultVoiceID)
	body.Audio.Encoding = "mp3"
	body.Audio.SpeedRatio = ratio(req.SpeedRatio)
	body.Audio.VolumeRatio = ratio(req.VolumeRatio)
	body.Audio.PitchRatio = ratio(req.PitchRatio)
	body.Request.ReqID = uuid.NewString()
	body.Request.Text = req.Text
	body.Request.TextType = "plain"
	body.Request.Operation = "query"

	headers := map[string]string{"Authorization": "Bearer; " + c.cfg.SpeechToken}
	var resp speechResponse
	if err := c.postJSON(ctx, c.cfg.SpeechURL, headers, body, &resp); err != nil {
		return nil, err
	}
	if resp.Data == "" {
		if resp.Code != speechSuccessCode {
			return nil, apperr.NewJobFailedError(fmt.Sprintf("speech backend error %d: %s", resp.Code, resp.Message))
		}
		return nil, apperr.NewJobFailedError("speech backend returned no audio")
	}

	audio, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		return nil, apperr.NewParseError("decoding speech audio", err)
	}
	log.Debugf("Synthesize: reqid=%s voice=%s bytes=%d", body.Request.ReqID, body.Audio.VoiceType, len(audio))
	return audio, nil
}

func ratio(v float64) float64 {
	if v <= 0 {
		return 1.0
	}
	return v
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
