package types

import "time"

// Lecture event types.
const (
	EventLectureCreated = "lecture.created"
	EventLectureUpdated = "lecture.updated"
	EventLectureDeleted = "lecture.deleted"
)

// LectureEvent describes a completed lecture mutation.
type LectureEvent struct {
	Type      string    `json:"type"`
	LectureID int       `json:"lectureId"`
	ActorID   int       `json:"actorId"`
	Title     string    `json:"title,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	At        time.Time `json:"at"`
}
