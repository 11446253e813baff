// Package session holds the ephemeral per-browser state of the authenticate
// screen: the selected file, its preview and the last verification response.
package session

import (
	"time"

	"academia/internal/upload"
	"academia/internal/verification/compare"
)

// Response is the outcome of a verification attempt as shown to the user.
type Response struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Data        compare.Observed `json:"data,omitempty"`
	Report      *compare.Report  `json:"report,omitempty"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Session is a snapshot of one upload session. Its value fields are copies;
// File, Preview and Response point at the stored values and must not be
// mutated.
type Session struct {
	ID       string
	File     *upload.File
	Preview  *upload.Preview
	InFlight bool
	// AttemptID identifies the current attempt. It changes on every file
	// selection, reset and verification start.
	AttemptID string
	Response  *Response
	CreatedAt time.Time
	TouchedAt time.Time
}

// HasFile reports whether a file is selected.
func (s Session) HasFile() bool { return s.File != nil }

// View is the JSON shape of a session served to the page.
type View struct {
	HasFile     bool            `json:"has_file"`
	FileName    string          `json:"file_name,omitempty"`
	ContentType string          `json:"content_type,omitempty"`
	Size        int64           `json:"size,omitempty"`
	Preview     *upload.Preview `json:"preview,omitempty"`
	InFlight    bool            `json:"in_flight"`
	Response    *Response       `json:"response,omitempty"`
}

// View projects the session for display.
func (s Session) View() View {
	v := View{
		HasFile:  s.HasFile(),
		Preview:  s.Preview,
		InFlight: s.InFlight,
		Response: s.Response,
	}
	if s.File != nil {
		v.FileName = s.File.Name
		v.ContentType = s.File.ContentType
		v.Size = s.File.Size()
	}
	return v
}
