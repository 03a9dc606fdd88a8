package types

import "time"

// Lecture is a recorded lecture with its video asset.
type Lecture struct {
	// ID is the unique identifier of the lecture.
	ID int `json:"id" db:"id"`

	// Title is the human-readable name of the lecture. Never empty.
	Title string `json:"title" db:"title"`

	// Description is optional free text.
	Description string `json:"description" db:"description"`

	// VideoURL locates the stored video asset. It is either an object
	// storage URL or a placeholder URL when no storage is configured.
	VideoURL string `json:"videoUrl" db:"video_url"`

	// CreatorID references the user who created the lecture.
	CreatorID int `json:"-" db:"created_by"`

	// CreatedBy is the creator view attached for admin viewers only.
	CreatedBy *Creator `json:"createdBy,omitempty" db:"-"`

	// CreatedAt is the timestamp at which the lecture was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the lecture.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Creator identifies the owner of a lecture.
type Creator struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}
