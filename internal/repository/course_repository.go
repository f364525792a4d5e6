package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// CourseRepository persists courses and their weekly meeting patterns.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the course with its meetings in one shot.
func (r *CourseRepository) Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course payload is nil")
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.Difficulty == "" {
		course.Difficulty = models.DifficultyMedium
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	target := r.exec(exec)
	const insertCourse = `
INSERT INTO courses (id, user_id, name, code, difficulty, created_at, updated_at)
VALUES (:id, :user_id, :name, :code, :difficulty, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertCourse, course); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}

	const insertMeeting = `
INSERT INTO class_meetings (id, course_id, day_of_week, start_time, end_time, building)
VALUES (:id, :course_id, :day_of_week, :start_time, :end_time, :building)`
	for i := range course.Meetings {
		meeting := &course.Meetings[i]
		if meeting.ID == "" {
			meeting.ID = uuid.NewString()
		}
		meeting.CourseID = course.ID
		if _, err := sqlx.NamedExecContext(ctx, target, insertMeeting, meeting); err != nil {
			return fmt.Errorf("insert class meeting: %w", err)
		}
	}
	return nil
}

// FindByID returns one course with its meetings loaded.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, user_id, name, code, difficulty, created_at, updated_at FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	meetings, err := r.listMeetings(ctx, []string{course.ID})
	if err != nil {
		return nil, err
	}
	course.Meetings = meetings[course.ID]
	return &course, nil
}

// ListByUser returns all of a user's courses with meetings attached.
func (r *CourseRepository) ListByUser(ctx context.Context, userID string) ([]models.Course, error) {
	const query = `SELECT id, user_id, name, code, difficulty, created_at, updated_at
FROM courses WHERE user_id = $1 ORDER BY created_at`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, userID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if len(courses) == 0 {
		return courses, nil
	}
	ids := make([]string, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}
	meetings, err := r.listMeetings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i].Meetings = meetings[courses[i].ID]
	}
	return courses, nil
}

func (r *CourseRepository) listMeetings(ctx context.Context, courseIDs []string) (map[string][]models.ClassMeeting, error) {
	query, args, err := sqlx.In(`SELECT id, course_id, day_of_week, start_time, end_time, building
FROM class_meetings WHERE course_id IN (?) ORDER BY day_of_week, start_time`, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build meetings query: %w", err)
	}
	query = r.db.Rebind(query)
	var meetings []models.ClassMeeting
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, fmt.Errorf("list class meetings: %w", err)
	}
	grouped := make(map[string][]models.ClassMeeting, len(courseIDs))
	for _, meeting := range meetings {
		grouped[meeting.CourseID] = append(grouped[meeting.CourseID], meeting)
	}
	return grouped, nil
}
