package genclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		ArkAPIKey:     "ark-key",
		ArkBaseURL:    srv.URL + "/",
		ImageModel:    "img-model",
		VideoModel:    "vid-model",
		SpeechURL:     srv.URL + "/tts",
		SpeechAppID:   "app",
		SpeechToken:   "tok",
		SpeechCluster: "cluster",
	}, WithHTTPClient(srv.Client()), WithChatProvider(NewOpenAIProvider("llm-key", srv.URL, "gpt-test", srv.Client())))
	return c, srv
}

func TestChatStreamDeliversChunksInOrder(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer llm-key" {
			t.Errorf("unexpected request %s %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		var body chatRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !body.Stream || body.ResponseFormat == nil || body.ResponseFormat.Type != "json_object" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{`{"a"`, `: 1`, `}`} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, ": keep-alive\n\ndata: [DONE]\n\n")
	})

	var got []string
	err := c.ChatStream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, true, func(s string) { got = append(got, s) })
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{`{"a"`, `: 1`, `}`}, got); diff != "" {
		t.Fatalf("chunks (-want +got):\n%s", diff)
	}

	full, err := c.ChatComplete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, true)
	if err != nil || full != `{"a": 1}` {
		t.Fatalf("ChatComplete = %q, %v", full, err)
	}
}

func TestChatStreamSurfacesUpstreamError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"slow down"}}`)
	})

	called := false
	err := c.ChatStream(context.Background(), nil, false, func(string) { called = true })
	if !apperr.IsTransportError(err) || !strings.Contains(err.Error(), "slow down") {
		t.Fatalf("expected transport error with upstream message, got %v", err)
	}
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Status != http.StatusTooManyRequests {
		t.Fatalf("status not carried: %+v", appErr)
	}
	if called {
		t.Fatal("no chunk may be delivered on a failed request")
	}
}

func TestMissingCredentialsAreConfigurationErrors(t *testing.T) {
	c := NewClient(Config{ArkBaseURL: "http://unused"}, WithChatProvider(NewOpenAIProvider("", "http://unused", "m", nil)))
	ctx := context.Background()

	if _, err := c.GenerateImage(ctx, "p", "1x1", nil); !apperr.IsConfigurationError(err) {
		t.Errorf("image: %v", err)
	}
	if _, err := c.QueryVideoStatus(ctx, "t"); !apperr.IsConfigurationError(err) {
		t.Errorf("video: %v", err)
	}
	if _, err := c.Synthesize(ctx, SpeechRequest{Text: "x"}); !apperr.IsConfigurationError(err) {
		t.Errorf("speech: %v", err)
	}
	if _, err := c.ChatComplete(ctx, nil, false); !apperr.IsConfigurationError(err) {
		t.Errorf("chat: %v", err)
	}
}

func TestGenerateImage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body imageRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != "/images/generations" || body.Model != "img-model" || body.Size != "2560x1440" ||
			body.ResponseFormat != "url" || !body.Watermark || len(body.Image) != 2 {
			t.Errorf("unexpected request %s %+v", r.URL.Path, body)
		}
		io.WriteString(w, `{"data":[{"url":"http://cdn/img.png"}]}`)
	})

	res, err := c.GenerateImage(context.Background(), "a harbor", "2560x1440", []string{"http://a", "http://b"})
	if err != nil || res.URL != "http://cdn/img.png" {
		t.Fatalf("GenerateImage = %+v, %v", res, err)
	}
}

func TestGenerateImageStringError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"prompt rejected"}`)
	})
	_, err := c.GenerateImage(context.Background(), "x", "1x1", nil)
	if !apperr.IsTransportError(err) || !strings.Contains(err.Error(), "prompt rejected") {
		t.Fatalf("got %v", err)
	}
}

func TestGenerateVideoPayload(t *testing.T) {
	var got videoTaskRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contents/generations/tasks" {
			t.Errorf("path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"id":"task-1"}`)
	})

	task, err := c.GenerateVideo(context.Background(), VideoRequest{
		Prompt:        "walks in",
		FirstFrameURL: "http://first",
		LastFrameURL:  "http://last",
		Duration:      skeleton.Fixed(13),
		Ratio:         skeleton.Ratio9x16,
	})
	if err != nil || task.ID != "task-1" {
		t.Fatalf("GenerateVideo = %+v, %v", task, err)
	}
	if got.Duration == nil || *got.Duration != 12 || got.Ratio != "9:16" || got.Model != "vid-model" {
		t.Fatalf("unexpected payload %+v", got)
	}
	roles := []string{}
	for _, item := range got.Content {
		roles = append(roles, item.Type+"/"+item.Role)
	}
	if diff := cmp.Diff([]string{"image_url/first_frame", "image_url/last_frame", "text/"}, roles); diff != "" {
		t.Fatalf("content (-want +got):\n%s", diff)
	}
}

func TestGenerateVideoRequiresFirstFrame(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: "x"}); !apperr.IsValidationError(err) {
		t.Fatalf("got %v", err)
	}
}

func TestClampVideoDuration(t *testing.T) {
	in := []skeleton.Duration{skeleton.Fixed(3), skeleton.Fixed(4), skeleton.Fixed(12), skeleton.Fixed(13), skeleton.Auto(), skeleton.Fixed(7.6)}
	want := []float64{4, 4, 12, 12, -1, 8}
	for i, d := range in {
		if got := ClampVideoDuration(d).Wire(); got != want[i] {
			t.Errorf("clamp(%v) = %v, want %v", d.Wire(), got, want[i])
		}
	}
}

func TestQueryVideoStatus(t *testing.T) {
	tests := []struct {
		body string
		want VideoStatus
	}{
		{`{"status":"queued"}`, VideoStatus{Status: JobPending}},
		{`{"status":"running"}`, VideoStatus{Status: JobRunning}},
		{`{"status":"succeeded","content":{"video_url":"http://v/1.mp4"}}`, VideoStatus{Status: JobSucceeded, VideoURL: "http://v/1.mp4"}},
		{`{"status":"succeeded","video_url":"http://v/2.mp4"}`, VideoStatus{Status: JobSucceeded, VideoURL: "http://v/2.mp4"}},
		{`{"status":"failed","error":{"message":"nsfw"}}`, VideoStatus{Status: JobFailed, Error: "nsfw"}},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/contents/generations/tasks/task-9" {
					t.Errorf("path %s", r.URL.Path)
				}
				io.WriteString(w, tt.body)
			})
			got, err := c.QueryVideoStatus(context.Background(), "task-9")
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	audio := []byte("ID3-fake-mp3")
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer; tok" {
			t.Errorf("auth header %q", r.Header.Get("Authorization"))
		}
		var body speechBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Audio.VoiceType != DefaultVoiceID || body.Audio.SpeedRatio != 1 || body.Request.ReqID == "" || body.App.Cluster != "cluster" {
			t.Errorf("unexpected body %+v", body)
		}
		fmt.Fprintf(w, `{"code":3000,"message":"Success","data":%q}`, base64.StdEncoding.EncodeToString(audio))
	})

	got, err := c.Synthesize(context.Background(), SpeechRequest{Text: "hello"})
	if err != nil || string(got) != string(audio) {
		t.Fatalf("Synthesize = %q, %v", got, err)
	}
}

func TestSynthesizeBackendError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"code":3011,"message":"invalid text"}`)
	})
	if _, err := c.Synthesize(context.Background(), SpeechRequest{Text: "x"}); !apperr.IsJobFailedError(err) {
		t.Fatalf("got %v", err)
	}
}

func TestResolveVoiceID(t *testing.T) {
	tests := map[string]string{
		"Anna":                            "en_female_anna_mars_bigtts",
		"悬疑解说":                            "zh_male_changtianyi_mars_bigtts",
		"zh_male_changtianyi_mars_bigtts": "zh_male_changtianyi_mars_bigtts",
		"Someone Else":                    "Someone Else",
	}
	for in, want := range tests {
		if got := ResolveVoiceID(in); got != want {
			t.Errorf("ResolveVoiceID(%q) = %q, want %q", in, got, want)
		}
	}
	if VoiceName("en_female_anna_mars_bigtts") != "Anna" || VoiceName("x") != "x" {
		t.Error("VoiceName lookup wrong")
	}
}
