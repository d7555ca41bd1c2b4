package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// Viewer is the caller on whose behalf the engine reads and grades.
type Viewer struct {
	UserID     uint
	Role       UserRole
	CanPreview bool
}

// MayPreview reports whether the viewer may see units that are still in preview.
func (v Viewer) MayPreview() bool {
	return v.CanPreview || v.Role == Teacher || v.Role == Admin
}
