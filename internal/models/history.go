package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// RenderJobRecord is the persisted audit row for a render job. Live job state
// stays in the in-memory registry; a record is written once the job reaches a
// terminal status so completed work survives restarts and is listable.
type RenderJobRecord struct {
	ID        string    `gorm:"primarykey;type:varchar(26)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// JobID is the render job's registry id.
	JobID string `gorm:"not null;size:36;uniqueIndex" json:"job_id"`

	// ProjectName is the name of the rendered project.
	ProjectName string `gorm:"size:255" json:"project_name"`

	// OutputPath is where the output file was written.
	OutputPath string `gorm:"size:1024" json:"output_path"`

	// Format is the requested container tag.
	Format string `gorm:"size:20" json:"format"`

	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frame_rate"`
	Quality   string  `gorm:"size:20" json:"quality"`

	// Status is the terminal status the job finished in.
	Status RenderStatus `gorm:"not null;size:20;index" json:"status"`

	// FramesWritten is the number of frames produced before the job ended.
	FramesWritten int `json:"frames_written"`

	// DurationMs is the wall-clock render duration in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Error holds the failure message for failed jobs.
	Error string `gorm:"size:4096" json:"error,omitempty"`
}

// TableName returns the table name for RenderJobRecord.
func (RenderJobRecord) TableName() string {
	return "render_jobs"
}

// BeforeCreate generates a ULID primary key if not already set.
func (r *RenderJobRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	return nil
}
