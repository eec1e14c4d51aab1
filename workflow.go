package main

import (
	"fmt"
	"time"
)

// Property names in the tracking database.
const (
	propTitle         = "Title"
	propSourceURL     = "URL(Source)"
	propContentStatus = "Status(Content)"
	propWebStatus     = "Status(Web)"
	propPodcastStatus = "Status(Podcast)"
	propDateSearch    = "Date(Search)"
	propDateSelect    = "Date(Select)"
	propDateWeb       = "Date(W-complete)"
	propDatePodcast   = "Date(P-complete)"
	propArticleLink   = "Article(Web)"
	propScriptLink    = "Script(Podcast)"
)

// ContentStatus is the content-authoring dimension of a record.
type ContentStatus int

const (
	ContentDefault ContentStatus = iota
	ContentAwaitingWritePDF
	ContentAwaitingWriteURL
	ContentAwaitingFactCheck
	ContentComplete
)

var contentStatusNames = map[ContentStatus]string{
	ContentDefault:           "Default",
	ContentAwaitingWritePDF:  "AwaitingWrite(PDF)",
	ContentAwaitingWriteURL:  "AwaitingWrite(URL)",
	ContentAwaitingFactCheck: "AwaitingFactCheck",
	ContentComplete:          "Complete",
}

func (s ContentStatus) String() string { return contentStatusNames[s] }

// ParseContentStatus maps a stored status name onto the closed enum. An
// empty name means the dimension was never set and parses as the default.
// Unknown names are an error so typos in the database surface immediately
// instead of silently matching nothing.
func ParseContentStatus(name string) (ContentStatus, error) {
	if name == "" {
		return ContentDefault, nil
	}
	for s, n := range contentStatusNames {
		if n == name {
			return s, nil
		}
	}
	return ContentDefault, fmt.Errorf("unknown content status %q", name)
}

// WebStatus is the web-publishing dimension of a record.
type WebStatus int

const (
	WebDefault WebStatus = iota
	WebAwaitingPost
	WebAwaitingSchedule
	WebComplete
)

var webStatusNames = map[WebStatus]string{
	WebDefault:          "Default",
	WebAwaitingPost:     "AwaitingPost",
	WebAwaitingSchedule: "AwaitingSchedule",
	WebComplete:         "Complete",
}

func (s WebStatus) String() string { return webStatusNames[s] }

func ParseWebStatus(name string) (WebStatus, error) {
	if name == "" {
		return WebDefault, nil
	}
	for s, n := range webStatusNames {
		if n == name {
			return s, nil
		}
	}
	return WebDefault, fmt.Errorf("unknown web status %q", name)
}

// PodcastStatus is the audio-publishing dimension of a record.
type PodcastStatus int

const (
	PodcastDefault PodcastStatus = iota
	PodcastAwaitingAudio
	PodcastComplete
)

var podcastStatusNames = map[PodcastStatus]string{
	PodcastDefault:       "Default",
	PodcastAwaitingAudio: "AwaitingAudio",
	PodcastComplete:      "Complete",
}

func (s PodcastStatus) String() string { return podcastStatusNames[s] }

func ParsePodcastStatus(name string) (PodcastStatus, error) {
	if name == "" {
		return PodcastDefault, nil
	}
	for s, n := range podcastStatusNames {
		if n == name {
			return s, nil
		}
	}
	return PodcastDefault, fmt.Errorf("unknown podcast status %q", name)
}

// Record is one unit of work in the tracking database.
type Record struct {
	ID        string
	Title     string
	SourceURL string

	Content ContentStatus
	Web     WebStatus
	Podcast PodcastStatus

	// Milestone dates as stored (YYYY-MM-DD), empty when unset.
	DateSelected        string
	DateWebComplete     string
	DatePodcastComplete string

	// Raw link-property values pointing at the generated child pages.
	ArticleLink string
	ScriptLink  string
}

// PropertyUpdate is one pending change to a record property. Value carries
// the wire representation understood by the record store.
type PropertyUpdate struct {
	Name  string
	Value any
}

func statusUpdate(property, name string) PropertyUpdate {
	return PropertyUpdate{Name: property, Value: map[string]any{
		"status": map[string]any{"name": name},
	}}
}

func dateUpdate(property, day string) PropertyUpdate {
	return PropertyUpdate{Name: property, Value: map[string]any{
		"date": map[string]any{"start": day},
	}}
}

// AdvanceOnComplete computes the downstream status changes for a record
// whose content authoring is complete: the web and podcast dimensions each
// move to their first waiting state, but only if still at the default. A
// dimension a human (or earlier run) already advanced is left alone, so
// applying the result twice is a no-op.
func AdvanceOnComplete(rec Record) []PropertyUpdate {
	if rec.Content != ContentComplete {
		return nil
	}

	var updates []PropertyUpdate
	if rec.Web == WebDefault {
		updates = append(updates, statusUpdate(propWebStatus, WebAwaitingPost.String()))
	}
	if rec.Podcast == PodcastDefault {
		updates = append(updates, statusUpdate(propPodcastStatus, PodcastAwaitingAudio.String()))
	}
	return updates
}

// DateStamps computes the milestone date fields to fill in for a record:
// selection date when writing is pending, web completion when the post is
// awaiting scheduling, podcast completion when audio is done. A date that is
// already set is never overwritten; the store has no change history, so this
// records "first seen in this state", not true event time.
func DateStamps(rec Record, now time.Time) []PropertyUpdate {
	day := now.Format("2006-01-02")

	var updates []PropertyUpdate
	if (rec.Content == ContentAwaitingWritePDF || rec.Content == ContentAwaitingWriteURL) && rec.DateSelected == "" {
		updates = append(updates, dateUpdate(propDateSelect, day))
	}
	if rec.Web == WebAwaitingSchedule && rec.DateWebComplete == "" {
		updates = append(updates, dateUpdate(propDateWeb, day))
	}
	if rec.Podcast == PodcastComplete && rec.DatePodcastComplete == "" {
		updates = append(updates, dateUpdate(propDatePodcast, day))
	}
	return updates
}
