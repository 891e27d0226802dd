package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const structureJSON = `{
  "title": "Demo Script",
  "sections": [
    {
      "heading": "Opening",
      "segments": [
        {"name": "intro", "voice_id": "narrator", "brief": "welcome the viewer"},
        {"name": "hook", "voice_id": "narrator", "brief": "tease the topic"}
      ]
    },
    {
      "heading": "Body",
      "segments": [
        {"name": "detail", "voice_id": "expert", "brief": "explain the topic"}
      ]
    }
  ]
}`

// scriptServer answers the structure request with structureJSON and every
// segment request with a body derived from the segment name.
func scriptServer(t *testing.T, failSegment string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		request := string(body)
		switch {
		case strings.Contains(request, "script planner"):
			_ = json.NewEncoder(w).Encode(chatResponse(structureJSON))
		default:
			var payload struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.Unmarshal(body, &payload); err != nil || len(payload.Messages) < 2 {
				t.Fatalf("unexpected segment request %s", request)
			}
			user := payload.Messages[1].Content
			name := ""
			for _, line := range strings.Split(user, "\n") {
				if after, ok := strings.CutPrefix(line, "Segment: "); ok {
					name = after
				}
			}
			if failSegment != "" && name == failSegment {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(chatResponse(fmt.Sprintf("narration for %s", name)))
		}
	}))
}

func TestGenerateScript(t *testing.T) {
	server := scriptServer(t, "")
	defer server.Close()

	client := NewClient(Config{
		APIKey:                "test",
		BaseURL:               server.URL,
		Model:                 "demo",
		MaxConcurrentSegments: 2,
	})

	script, err := client.GenerateScript(context.Background(), "make a demo")
	if err != nil {
		t.Fatalf("GenerateScript returned error: %v", err)
	}
	if script.Title != "Demo Script" {
		t.Fatalf("unexpected title %q", script.Title)
	}
	if len(script.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(script.Sections))
	}
	opening := script.Sections[0]
	if len(opening.Segments) != 2 || opening.Segments[0].Name != "intro" || opening.Segments[1].Name != "hook" {
		t.Fatalf("unexpected opening segments %#v", opening.Segments)
	}
	if opening.Segments[0].Text != "narration for intro" {
		t.Fatalf("unexpected segment text %q", opening.Segments[0].Text)
	}
	if script.Sections[1].Segments[0].VoiceID != "expert" {
		t.Fatalf("unexpected voice %q", script.Sections[1].Segments[0].VoiceID)
	}
}

func TestGenerateScriptSegmentFailureFailsRun(t *testing.T) {
	server := scriptServer(t, "hook")
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo", MaxConcurrentSegments: 2},
		WithSleeper(func(d time.Duration) {}),
	)

	_, err := client.GenerateScript(context.Background(), "make a demo")
	if err == nil {
		t.Fatal("expected aggregate failure")
	}
	if !strings.Contains(err.Error(), "segments failed") {
		t.Fatalf("expected aggregate error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"hook"`) {
		t.Fatalf("expected failing segment named, got %v", err)
	}
}

func TestGenerateStructureRejectsEmptyPrompt(t *testing.T) {
	client := NewClient(Config{APIKey: "test", Model: "demo"})
	if _, err := client.GenerateStructure(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
