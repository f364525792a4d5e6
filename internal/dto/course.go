package dto

import "github.com/novaticstar/hoosgottime/internal/models"

// ClassMeetingInput declares one weekly meeting of a course.
type ClassMeetingInput struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
	Building  string `json:"building"`
}

// CreateCourseRequest registers a course with its meeting pattern.
type CreateCourseRequest struct {
	Name       string                  `json:"name" validate:"required"`
	Code       string                  `json:"code"`
	Difficulty models.CourseDifficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Meetings   []ClassMeetingInput     `json:"meetings" validate:"omitempty,dive"`
}
