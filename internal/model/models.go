// internal/model/models.go
package model

import "time"

// Project represents one remote project as seen during the latest sync.
// Identity is (Token, ProjectID); re-syncs overwrite the whole record.
type Project struct {
	Token       string    `json:"-"`
	ProjectID   int64     `json:"project_id"`
	Name        string    `json:"name"`
	Visibility  string    `json:"visibility"`
	TopLanguage *string   `json:"top_language"`
	SyncedAt    time.Time `json:"synced_at"`
}

// CommitRecord is a single commit persisted under (Token, Repository, SHA).
// The same SHA on several branches of one repository collapses to one record
// tagged with whichever branch the sync walked first.
type CommitRecord struct {
	Token       string    `json:"-"`
	SHA         string    `json:"sha"`
	Repository  string    `json:"repository"`
	Branch      string    `json:"branch"`
	CommittedAt time.Time `json:"committed_at"`
	Author      *string   `json:"author"`
	Message     *string   `json:"message"`
	URL         *string   `json:"url"`
}

// DailyCount is the commit count for one calendar day. Date is an ISO local
// date (2006-01-02). Days with no commits are not stored; the query layer
// reconstructs them as zero.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CommitPage is one page of a filtered commit query.
type CommitPage struct {
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	Size    int            `json:"size"`
	Records []CommitRecord `json:"records"`
}

// DateFormat is the wire and storage format for calendar days.
const DateFormat = "2006-01-02"

// Day truncates t to its calendar day in the local time zone.
func Day(t time.Time) string {
	return t.Local().Format(DateFormat)
}
