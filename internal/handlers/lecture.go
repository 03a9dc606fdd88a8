package handlers

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lecturehub/apiserver/internal/apperr"
	"github.com/lecturehub/apiserver/internal/auth"
	"github.com/lecturehub/apiserver/internal/services"
	"github.com/lecturehub/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxRequestBytes    = services.MaxVideoBytes + 1<<20
	formFieldTitle     = "title"
	formFieldDesc      = "description"
	formFieldVideo     = "video"
)

// LectureHandler provides HTTP handlers for lectures.
type LectureHandler struct {
	lectureService *services.LectureService
	errors         errorWriter
}

// NewLectureHandler constructs a handler with the provided service.
func NewLectureHandler(lectureService *services.LectureService, exposeErrors bool) *LectureHandler {
	return &LectureHandler{
		lectureService: lectureService,
		errors:         errorWriter{exposeDetail: exposeErrors},
	}
}

// LectureRouter registers lecture routes on the given router. Every route
// requires authentication; creation is additionally gated to admins.
func LectureRouter(
	r chi.Router,
	lectureService *services.LectureService,
	authMiddleware func(http.Handler) http.Handler,
	exposeErrors bool,
) {
	handler := NewLectureHandler(lectureService, exposeErrors)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.ListLectures)
	r.With(requireAdmin).Post("/", handler.CreateLecture)
	r.Route("/{lectureID}", func(r chi.Router) {
		r.Get("/", handler.GetLecture)
		r.Put("/", handler.UpdateLecture)
		r.Delete("/", handler.DeleteLecture)
	})
}

func (h *LectureHandler) ListLectures(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	lectures, err := h.lectureService.List(r.Context(), identity)
	if err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lectures)
}

func (h *LectureHandler) GetLecture(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	lecture, err := h.lectureService.Get(r.Context(), identity, parseLectureID(r))
	if err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lecture)
}

func (h *LectureHandler) CreateLecture(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	form, err := parseLectureForm(w, r)
	if err != nil {
		h.errors.write(w, err)
		return
	}

	lecture, err := h.lectureService.Create(r.Context(), identity, services.LectureInput{
		Title:       valueOrEmpty(form.Title),
		Description: valueOrEmpty(form.Description),
		Video:       form.Video,
	})
	if err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, LectureResponse{Message: "Lecture created successfully", Lecture: lecture})
}

func (h *LectureHandler) UpdateLecture(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	form, err := parseLectureForm(w, r)
	if err != nil {
		h.errors.write(w, err)
		return
	}

	lecture, err := h.lectureService.Update(r.Context(), identity, parseLectureID(r), services.LectureUpdate{
		Title:       form.Title,
		Description: form.Description,
		Video:       form.Video,
	})
	if err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LectureResponse{Message: "Lecture updated successfully", Lecture: lecture})
}

func (h *LectureHandler) DeleteLecture(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	if err := h.lectureService.Delete(r.Context(), identity, parseLectureID(r)); err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Lecture deleted successfully"})
}

// LectureResponse wraps a lecture returned from a mutation.
type LectureResponse struct {
	Message string        `json:"message"`
	Lecture types.Lecture `json:"lecture"`
}

// LectureForm is the parsed create/update payload. Nil fields were absent.
type LectureForm struct {
	Title       *string
	Description *string
	Video       *services.VideoUpload
}

type lectureJSON struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// parseLectureID yields 0 for ids that cannot exist, which the service
// reports as not found.
func parseLectureID(r *http.Request) int {
	id, err := strconv.Atoi(chi.URLParam(r, "lectureID"))
	if err != nil || id < 1 {
		return 0
	}
	return id
}

// parseLectureForm accepts multipart forms (with an optional video part)
// and, for metadata-only updates, JSON bodies.
func parseLectureForm(w http.ResponseWriter, r *http.Request) (LectureForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body lectureJSON
		if err := decodeJSON(r, &body); err != nil {
			return LectureForm{}, apperr.Validation("Invalid request body")
		}
		return LectureForm{Title: body.Title, Description: body.Description}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return LectureForm{}, apperr.Validation("Video file must be 50MB or smaller")
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return LectureForm{}, apperr.Validation("Invalid form data")
		}
		if err := r.ParseForm(); err != nil {
			return LectureForm{}, apperr.Validation("Invalid form data")
		}
	}

	form := LectureForm{
		Title:       formValue(r, formFieldTitle),
		Description: formValue(r, formFieldDesc),
	}
	video, err := parseVideoFile(r.MultipartForm)
	if err != nil {
		return LectureForm{}, err
	}
	form.Video = video
	return form, nil
}

func formValue(r *http.Request, key string) *string {
	values, ok := r.Form[key]
	if !ok || len(values) == 0 {
		return nil
	}
	value := values[0]
	return &value
}

func parseVideoFile(form *multipart.Form) (*services.VideoUpload, error) {
	if form == nil {
		return nil, nil
	}

	files := form.File[formFieldVideo]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, apperr.Validation("Only one video file is allowed")
	}

	fileHeader := files[0]
	if fileHeader.Size > services.MaxVideoBytes {
		return nil, apperr.Validation("Video file must be 50MB or smaller")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "Failed to read upload", fmt.Errorf("open video: %w", err))
	}

	data, err := readFileLimited(file, services.MaxVideoBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &services.VideoUpload{
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Filename:    fileHeader.Filename,
	}, nil
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// requireAdmin is the coarse route gate for lecture creation.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := auth.FromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !identity.IsAdmin() {
			writeError(w, http.StatusForbidden, "Access denied. Admins only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
