package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lecturehub/apiserver/internal/apperr"
	"github.com/lecturehub/apiserver/internal/auth"
	"github.com/lecturehub/apiserver/internal/store"
	"github.com/lecturehub/apiserver/types"
	"github.com/sirupsen/logrus"
)

// MaxVideoBytes caps a single lecture video upload.
const MaxVideoBytes = 50 << 20

const videoContentTypePrefix = "video/"

// Lecture operation names used for metrics and logs.
const (
	OpCreate = "create"
	OpList   = "list"
	OpGet    = "get"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Asset cleanup failure reasons.
const (
	CleanupOrphan   = "orphan"
	CleanupReplaced = "replaced"
	CleanupDeleted  = "deleted"
)

// LectureRepository defines persistence operations for lectures.
type LectureRepository interface {
	List(ctx context.Context) ([]types.Lecture, error)
	Get(ctx context.Context, id int) (types.Lecture, error)
	Create(ctx context.Context, lecture types.Lecture) (types.Lecture, error)
	Update(ctx context.Context, lecture types.Lecture) (types.Lecture, error)
	Delete(ctx context.Context, id int) error
}

// AssetStore stores lecture videos and hands out locators for them.
type AssetStore interface {
	Put(ctx context.Context, data []byte, contentType, filename string) (string, error)
	Delete(ctx context.Context, locator string) error
	Owns(locator string) bool
}

// EventPublisher announces completed lecture mutations.
type EventPublisher interface {
	PublishLectureEvent(ctx context.Context, event types.LectureEvent) error
}

// Recorder receives lecture operation outcomes.
type Recorder interface {
	LectureOperation(op string, err error)
	AssetCleanupFailed(reason string)
}

// VideoUpload is an uploaded video file held in memory.
type VideoUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// LectureInput carries the fields of a new lecture.
type LectureInput struct {
	Title       string
	Description string
	Video       *VideoUpload
}

// LectureUpdate carries a partial lecture update. Nil fields are left
// untouched; an empty title counts as omitted.
type LectureUpdate struct {
	Title       *string
	Description *string
	Video       *VideoUpload
}

// LectureService encapsulates lecture use-cases and the video lifecycle.
type LectureService struct {
	repo     LectureRepository
	assets   AssetStore
	events   EventPublisher
	recorder Recorder
	log      *logrus.Entry
	now      func() time.Time
}

// LectureOption customizes a LectureService.
type LectureOption func(*LectureService)

// WithEvents publishes lecture events through p.
func WithEvents(p EventPublisher) LectureOption {
	return func(s *LectureService) {
		if p != nil {
			s.events = p
		}
	}
}

// WithRecorder reports operation outcomes to r.
func WithRecorder(r Recorder) LectureOption {
	return func(s *LectureService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger logs cleanup and publish failures to log.
func WithLogger(log *logrus.Entry) LectureOption {
	return func(s *LectureService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewLectureService(repo LectureRepository, assets AssetStore, opts ...LectureOption) *LectureService {
	s := &LectureService{
		repo:     repo,
		assets:   assets,
		events:   noopPublisher{},
		recorder: noopRecorder{},
		log:      logrus.NewEntry(logrus.StandardLogger()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every lecture, newest first.
func (s *LectureService) List(ctx context.Context, caller auth.Identity) (lectures []types.Lecture, err error) {
	defer func() { s.recorder.LectureOperation(OpList, err) }()

	if err := auth.Authorize(caller, auth.ActionRead, nil); err != nil {
		return nil, err
	}
	lectures, err = s.repo.List(ctx)
	if err != nil {
		return nil, apperr.StoreFailure("Server error", err)
	}
	for i := range lectures {
		lectures[i] = viewFor(caller, lectures[i])
	}
	return lectures, nil
}

// Get returns one lecture.
func (s *LectureService) Get(ctx context.Context, caller auth.Identity, id int) (lecture types.Lecture, err error) {
	defer func() { s.recorder.LectureOperation(OpGet, err) }()

	if err := auth.Authorize(caller, auth.ActionRead, nil); err != nil {
		return types.Lecture{}, err
	}
	lecture, err = s.load(ctx, id)
	if err != nil {
		return types.Lecture{}, err
	}
	return viewFor(caller, lecture), nil
}

// Create uploads the video and persists a new lecture owned by caller.
func (s *LectureService) Create(ctx context.Context, caller auth.Identity, input LectureInput) (lecture types.Lecture, err error) {
	defer func() { s.recorder.LectureOperation(OpCreate, err) }()

	if err := auth.Authorize(caller, auth.ActionCreate, nil); err != nil {
		return types.Lecture{}, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return types.Lecture{}, apperr.Validation("Title is required")
	}
	if input.Video == nil || len(input.Video.Data) == 0 {
		return types.Lecture{}, apperr.Validation("Video file is required")
	}
	if err := validateVideo(input.Video); err != nil {
		return types.Lecture{}, err
	}

	locator, err := s.assets.Put(ctx, input.Video.Data, input.Video.ContentType, input.Video.Filename)
	if err != nil {
		return types.Lecture{}, apperr.StoreFailure("Failed to upload video", err)
	}

	created, err := s.repo.Create(ctx, types.Lecture{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		VideoURL:    locator,
		CreatorID:   caller.ID,
	})
	if err != nil {
		s.cleanup(ctx, locator, CleanupOrphan)
		return types.Lecture{}, apperr.StoreFailure("Server error", err)
	}
	created.CreatedBy = &types.Creator{ID: caller.ID, Username: caller.Username}

	s.publish(ctx, types.EventLectureCreated, caller, created)
	return viewFor(caller, created), nil
}

// Update applies a partial update. A new video replaces the old one, which
// is then removed from storage.
func (s *LectureService) Update(ctx context.Context, caller auth.Identity, id int, update LectureUpdate) (lecture types.Lecture, err error) {
	defer func() { s.recorder.LectureOperation(OpUpdate, err) }()

	if !caller.Authenticated() {
		return types.Lecture{}, auth.Authorize(caller, auth.ActionUpdate, nil)
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return types.Lecture{}, err
	}
	if err := auth.Authorize(caller, auth.ActionUpdate, &current); err != nil {
		return types.Lecture{}, err
	}
	if update.Video != nil {
		if len(update.Video.Data) == 0 {
			return types.Lecture{}, apperr.Validation("Video file is empty")
		}
		if err := validateVideo(update.Video); err != nil {
			return types.Lecture{}, err
		}
	}

	next := current
	if update.Title != nil {
		if title := strings.TrimSpace(*update.Title); title != "" {
			next.Title = title
		}
	}
	if update.Description != nil {
		next.Description = strings.TrimSpace(*update.Description)
	}

	var newLocator string
	if update.Video != nil {
		newLocator, err = s.assets.Put(ctx, update.Video.Data, update.Video.ContentType, update.Video.Filename)
		if err != nil {
			return types.Lecture{}, apperr.StoreFailure("Failed to upload video", err)
		}
		next.VideoURL = newLocator
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		if newLocator != "" {
			s.cleanup(ctx, newLocator, CleanupOrphan)
		}
		if errors.Is(err, store.ErrNotFound) {
			return types.Lecture{}, apperr.New(apperr.ErrNotFound, "Lecture not found")
		}
		return types.Lecture{}, apperr.StoreFailure("Server error", err)
	}
	if newLocator != "" && current.VideoURL != newLocator && s.assets.Owns(current.VideoURL) {
		s.cleanup(ctx, current.VideoURL, CleanupReplaced)
	}

	s.publish(ctx, types.EventLectureUpdated, caller, updated)
	return viewFor(caller, updated), nil
}

// Delete removes the lecture and, when it lives in the configured store,
// its video. Video removal failures do not block the delete.
func (s *LectureService) Delete(ctx context.Context, caller auth.Identity, id int) (err error) {
	defer func() { s.recorder.LectureOperation(OpDelete, err) }()

	if !caller.Authenticated() {
		return auth.Authorize(caller, auth.ActionDelete, nil)
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(caller, auth.ActionDelete, &current); err != nil {
		return err
	}

	if s.assets.Owns(current.VideoURL) {
		s.cleanup(ctx, current.VideoURL, CleanupDeleted)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "Lecture not found")
		}
		return apperr.StoreFailure("Server error", err)
	}

	s.publish(ctx, types.EventLectureDeleted, caller, current)
	return nil
}

func (s *LectureService) load(ctx context.Context, id int) (types.Lecture, error) {
	if id < 1 {
		return types.Lecture{}, apperr.New(apperr.ErrNotFound, "Lecture not found")
	}
	lecture, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Lecture{}, apperr.New(apperr.ErrNotFound, "Lecture not found")
		}
		return types.Lecture{}, apperr.StoreFailure("Server error", err)
	}
	return lecture, nil
}

func (s *LectureService) cleanup(ctx context.Context, locator, reason string) {
	if err := s.assets.Delete(ctx, locator); err != nil {
		s.recorder.AssetCleanupFailed(reason)
		s.log.WithError(err).WithFields(logrus.Fields{
			"locator": locator,
			"reason":  reason,
		}).Warn("video cleanup failed")
	}
}

func (s *LectureService) publish(ctx context.Context, eventType string, caller auth.Identity, lecture types.Lecture) {
	event := types.LectureEvent{
		Type:      eventType,
		LectureID: lecture.ID,
		ActorID:   caller.ID,
		Title:     lecture.Title,
		VideoURL:  lecture.VideoURL,
		At:        s.now().UTC(),
	}
	if err := s.events.PublishLectureEvent(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":      eventType,
			"lecture_id": lecture.ID,
		}).Warn("lecture event publish failed")
	}
}

func validateVideo(video *VideoUpload) error {
	if len(video.Data) > MaxVideoBytes {
		return apperr.Validation("Video file must be 50MB or smaller")
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(video.ContentType)), videoContentTypePrefix) {
		return apperr.Validation("Only video files are allowed")
	}
	return nil
}

// viewFor hides the creator from non-admin viewers.
func viewFor(caller auth.Identity, lecture types.Lecture) types.Lecture {
	if !auth.AttachCreator(caller) {
		lecture.CreatedBy = nil
	}
	return lecture
}

type noopPublisher struct{}

func (noopPublisher) PublishLectureEvent(context.Context, types.LectureEvent) error { return nil }

type noopRecorder struct{}

func (noopRecorder) LectureOperation(string, error) {}
func (noopRecorder) AssetCleanupFailed(string)      {}
