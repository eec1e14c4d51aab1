package main

import (
	"testing"
	"time"
)

func TestParseStatusRoundTrip(t *testing.T) {
	for status, name := range contentStatusNames {
		got, err := ParseContentStatus(name)
		if err != nil || got != status {
			t.Errorf("ParseContentStatus(%q) = %v, %v", name, got, err)
		}
	}
	for status, name := range webStatusNames {
		got, err := ParseWebStatus(name)
		if err != nil || got != status {
			t.Errorf("ParseWebStatus(%q) = %v, %v", name, got, err)
		}
	}
	for status, name := range podcastStatusNames {
		got, err := ParsePodcastStatus(name)
		if err != nil || got != status {
			t.Errorf("ParsePodcastStatus(%q) = %v, %v", name, got, err)
		}
	}
}

func TestParseStatusEmptyIsDefault(t *testing.T) {
	if got, err := ParseContentStatus(""); err != nil || got != ContentDefault {
		t.Errorf("ParseContentStatus(\"\") = %v, %v", got, err)
	}
	if got, err := ParseWebStatus(""); err != nil || got != WebDefault {
		t.Errorf("ParseWebStatus(\"\") = %v, %v", got, err)
	}
	if got, err := ParsePodcastStatus(""); err != nil || got != PodcastDefault {
		t.Errorf("ParsePodcastStatus(\"\") = %v, %v", got, err)
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseContentStatus("InReview"); err == nil {
		t.Error("ParseContentStatus should reject unknown names")
	}
	if _, err := ParseWebStatus("Posted"); err == nil {
		t.Error("ParseWebStatus should reject unknown names")
	}
	if _, err := ParsePodcastStatus("Done"); err == nil {
		t.Error("ParsePodcastStatus should reject unknown names")
	}
}

func TestAdvanceOnComplete(t *testing.T) {
	tests := []struct {
		name        string
		rec         Record
		wantUpdates int
	}{
		{"content not complete", Record{Content: ContentAwaitingFactCheck}, 0},
		{"both at default", Record{Content: ContentComplete}, 2},
		{"web already advanced", Record{Content: ContentComplete, Web: WebAwaitingSchedule}, 1},
		{"podcast already advanced", Record{Content: ContentComplete, Podcast: PodcastAwaitingAudio}, 1},
		{"both advanced", Record{Content: ContentComplete, Web: WebComplete, Podcast: PodcastComplete}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates := AdvanceOnComplete(tt.rec)
			if len(updates) != tt.wantUpdates {
				t.Errorf("AdvanceOnComplete() = %d updates, want %d", len(updates), tt.wantUpdates)
			}
		})
	}
}

func TestAdvanceOnCompleteScenario(t *testing.T) {
	rec := Record{
		Content: ContentComplete,
		Web:     WebDefault,
		Podcast: PodcastAwaitingAudio,
	}

	updates := AdvanceOnComplete(rec)
	if len(updates) != 1 {
		t.Fatalf("AdvanceOnComplete() = %d updates, want 1", len(updates))
	}
	if updates[0].Name != propWebStatus {
		t.Errorf("update targets %q, want %q", updates[0].Name, propWebStatus)
	}

	want := statusUpdate(propWebStatus, "AwaitingPost")
	if got := updates[0].Value.(map[string]any)["status"].(map[string]any)["name"]; got != "AwaitingPost" {
		t.Errorf("update value = %v, want %v", updates[0].Value, want.Value)
	}
}

func TestAdvanceOnCompleteIdempotent(t *testing.T) {
	rec := Record{Content: ContentComplete}
	if len(AdvanceOnComplete(rec)) != 2 {
		t.Fatal("first advance should move both dimensions")
	}

	// Record state after the first round has been applied.
	rec.Web = WebAwaitingPost
	rec.Podcast = PodcastAwaitingAudio

	if updates := AdvanceOnComplete(rec); len(updates) != 0 {
		t.Errorf("second AdvanceOnComplete() = %d updates, want 0", len(updates))
	}
}

func TestDateStamps(t *testing.T) {
	now := time.Date(2026, 8, 23, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rec      Record
		wantProp string
	}{
		{"selected for PDF writing", Record{Content: ContentAwaitingWritePDF}, propDateSelect},
		{"selected for URL writing", Record{Content: ContentAwaitingWriteURL}, propDateSelect},
		{"web complete", Record{Web: WebAwaitingSchedule}, propDateWeb},
		{"podcast complete", Record{Podcast: PodcastComplete}, propDatePodcast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates := DateStamps(tt.rec, now)
			if len(updates) != 1 {
				t.Fatalf("DateStamps() = %d updates, want 1", len(updates))
			}
			if updates[0].Name != tt.wantProp {
				t.Errorf("update targets %q, want %q", updates[0].Name, tt.wantProp)
			}
			day := updates[0].Value.(map[string]any)["date"].(map[string]any)["start"]
			if day != "2026-08-23" {
				t.Errorf("stamped date = %v, want 2026-08-23", day)
			}
		})
	}
}

func TestDateStampsNeverOverwrite(t *testing.T) {
	now := time.Now()
	rec := Record{
		Content:             ContentAwaitingWriteURL,
		Web:                 WebAwaitingSchedule,
		Podcast:             PodcastComplete,
		DateSelected:        "2026-01-01",
		DateWebComplete:     "2026-01-02",
		DatePodcastComplete: "2026-01-03",
	}

	if updates := DateStamps(rec, now); len(updates) != 0 {
		t.Errorf("DateStamps() = %d updates, want 0 when all dates are set", len(updates))
	}
}
