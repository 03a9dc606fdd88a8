package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lecturehub/apiserver/types"
)

// LectureRepository handles persistence for lectures.
type LectureRepository struct {
	db *sql.DB
}

func NewLectureRepository(db *sql.DB) *LectureRepository {
	return &LectureRepository{db: db}
}

// List returns every lecture, newest first, with the creator's username.
func (r *LectureRepository) List(ctx context.Context) ([]types.Lecture, error) {
	const query = `
		SELECT l.id, l.title, l.description, l.video_url, l.created_by, u.username, l.created_at, l.updated_at
		FROM lectures l
		JOIN users u ON u.id = l.created_by
		ORDER BY l.created_at DESC, l.id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lectures := make([]types.Lecture, 0)
	for rows.Next() {
		lecture, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		lectures = append(lectures, lecture)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lectures, nil
}

func (r *LectureRepository) Get(ctx context.Context, id int) (types.Lecture, error) {
	const query = `
		SELECT l.id, l.title, l.description, l.video_url, l.created_by, u.username, l.created_at, l.updated_at
		FROM lectures l
		JOIN users u ON u.id = l.created_by
		WHERE l.id = $1`
	lecture, err := scanLecture(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Lecture{}, ErrNotFound
		}
		return types.Lecture{}, err
	}
	return lecture, nil
}

func (r *LectureRepository) Create(ctx context.Context, lecture types.Lecture) (types.Lecture, error) {
	now := time.Now()
	lecture.CreatedAt = now
	lecture.UpdatedAt = now

	const query = `
		INSERT INTO lectures (title, description, video_url, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		lecture.Title,
		lecture.Description,
		lecture.VideoURL,
		lecture.CreatorID,
		lecture.CreatedAt,
		lecture.UpdatedAt,
	).Scan(&lecture.ID); err != nil {
		return types.Lecture{}, err
	}
	return lecture, nil
}

func (r *LectureRepository) Update(ctx context.Context, lecture types.Lecture) (types.Lecture, error) {
	lecture.UpdatedAt = time.Now()

	const query = `
		UPDATE lectures
		SET title = $1,
			description = $2,
			video_url = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		lecture.Title,
		lecture.Description,
		lecture.VideoURL,
		lecture.UpdatedAt,
		lecture.ID,
	)
	if err != nil {
		return types.Lecture{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Lecture{}, err
	}
	if affected == 0 {
		return types.Lecture{}, ErrNotFound
	}
	return lecture, nil
}

func (r *LectureRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM lectures WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLecture(row rowScanner) (types.Lecture, error) {
	var (
		lecture  types.Lecture
		username string
	)
	if err := row.Scan(
		&lecture.ID,
		&lecture.Title,
		&lecture.Description,
		&lecture.VideoURL,
		&lecture.CreatorID,
		&username,
		&lecture.CreatedAt,
		&lecture.UpdatedAt,
	); err != nil {
		return types.Lecture{}, err
	}
	lecture.CreatedBy = &types.Creator{ID: lecture.CreatorID, Username: username}
	return lecture, nil
}
