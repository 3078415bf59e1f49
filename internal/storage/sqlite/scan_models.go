package sqlite

import "time"

// Window outcomes recorded in the journal
const (
	WindowStatusOK     = "ok"
	WindowStatusFailed = "failed"
)

// ScanRun is one scanner invocation
type ScanRun struct {
	ID            int64      `json:"id"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	Env           string     `json:"env"`
	Outfile       string     `json:"outfile"`
	Weeks         int        `json:"weeks"`
	Rows          int        `json:"rows"`
	FailedWindows int        `json:"failed_windows"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// ScanWindow is the outcome of one weekend window within a run
type ScanWindow struct {
	ID         int64     `json:"id"`
	RunID      int64     `json:"run_id"`
	DepartDate string    `json:"depart_date"`
	ReturnDate string    `json:"return_date"`
	Status     string    `json:"status"`
	Offers     int       `json:"offers"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
