package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"loom/internal/queue"
)

func TestSynthesizeReturnsAssetsInManifestOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			Segments []queue.VoiceSegment `json:"segments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(request.Segments) != 2 {
			t.Fatalf("expected 2 segments, got %d", len(request.Segments))
		}
		// Respond out of order to verify the client reorders by manifest.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"segment_id": "outro", "file_ref": "audio/outro.wav"},
				{"segment_id": "intro", "file_ref": "audio/intro.wav"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	assets, err := client.Synthesize(context.Background(), []queue.VoiceSegment{
		{ID: "intro", Text: "hello", VoiceID: "narrator"},
		{ID: "outro", Text: "bye", VoiceID: "narrator"},
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(assets) != 2 || assets[0].SegmentID != "intro" || assets[1].SegmentID != "outro" {
		t.Fatalf("unexpected assets %#v", assets)
	}
}

func TestSynthesizeRejectsMissingSegment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"segment_id": "intro", "file_ref": "audio/intro.wav"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), []queue.VoiceSegment{
		{ID: "intro", Text: "hello", VoiceID: "narrator"},
		{ID: "outro", Text: "bye", VoiceID: "narrator"},
	})
	if err == nil || !strings.Contains(err.Error(), `"outro"`) {
		t.Fatalf("expected missing segment error, got %v", err)
	}
}

func TestSynthesizeSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "quota exceeded"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), []queue.VoiceSegment{
		{ID: "intro", Text: "hello", VoiceID: "narrator"},
	})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestSynthesizeRejectsEmptyManifest(t *testing.T) {
	client := NewClient(Config{APIKey: "test", BaseURL: "http://localhost"})
	if _, err := client.Synthesize(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty manifest")
	}
}
