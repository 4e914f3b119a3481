package models

import "time"

type Course struct {
	ID        int64      `db:"id"         json:"id"`
	Name      string     `db:"name"       json:"name"`
	Category  string     `db:"category"   json:"category"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// Archive is an uploaded past-exam PDF. ObjectName is its key in the object store.
type Archive struct {
	ID           int64      `db:"id"            json:"id"`
	Name         string     `db:"name"          json:"name"`
	AcademicYear int        `db:"academic_year" json:"academic_year"`
	ArchiveType  string     `db:"archive_type"  json:"archive_type"`
	Professor    string     `db:"professor"     json:"professor"`
	ObjectName   string     `db:"object_name"   json:"-"`
	CourseID     int64      `db:"course_id"     json:"course_id"`
	DeletedAt    *time.Time `db:"deleted_at"    json:"-"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
}

type ArchiveWithCourse struct {
	Archive Archive
	Course  Course
}

// ArchiveDescriptor is the snapshot of an archive that went into a generated exam.
type ArchiveDescriptor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Course       string `json:"course"`
	Professor    string `json:"professor"`
	AcademicYear int    `json:"academic_year"`
	ArchiveType  string `json:"archive_type"`
}

// Descriptor flattens an archive row into the descriptor recorded in results.
func (a ArchiveWithCourse) Descriptor() ArchiveDescriptor {
	return ArchiveDescriptor{
		ID:           a.Archive.ID,
		Name:         a.Archive.Name,
		Course:       a.Course.Name,
		Professor:    a.Archive.Professor,
		AcademicYear: a.Archive.AcademicYear,
		ArchiveType:  a.Archive.ArchiveType,
	}
}
