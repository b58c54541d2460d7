package models

// DateUnknown is the sentinel used when a DOM fragment's date could not be
// resolved. Fragments carrying it never survive the merge.
const DateUnknown = "DATUM_UNBEKANNT"

// RawDienst is one DOM-derived observation for a calendar day. A fragment
// carries a shift code, a position tag, or both; its duty time is only ever
// derived alongside a shift code.
type RawDienst struct {
	Date     string // ISO date or DateUnknown
	Code     string // shift code, e.g. "D33"
	Position string // whitelisted location tag, e.g. "Oben"
	DutyTime string // "HH:MM - HH:MM", empty if not derivable
}

// Dienst is the merged per-day record, the unit consumed by the calendar
// encoder and the sync service. The JSON keys are the wire format of the
// hosted service and must not change.
type Dienst struct {
	Date     string `json:"datum"`
	Code     string `json:"dienst"`
	Position string `json:"position"`
	DutyTime string `json:"dienstzeit"`
	Username string `json:"username"`
}

// StatusFunc receives one status line per call. Implementations must be
// side-effect-only: never block, never panic back into the pipeline.
type StatusFunc func(line string)

// ProgressFunc receives a 0..100 percentage at fixed checkpoints.
type ProgressFunc func(percent int)

// SyncRequest is the payload posted to the hosted sync service.
type SyncRequest struct {
	Dienste    []Dienst `json:"dienste"`
	ExpiryDays int      `json:"expiry_days"`
}

// SyncResponse is the service's answer to a sync request.
type SyncResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	IcalURL   string `json:"ical_url,omitempty"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

// StoredEnvelope is what the service encrypts and persists per token.
// CreatedAt (unix seconds) is the authoritative base for expiry checks.
type StoredEnvelope struct {
	Dienste    []Dienst `json:"dienste"`
	ExpiryDays int      `json:"expiry_days"`
	CreatedAt  int64    `json:"created_at"`
}

// VersionInfo is served by the update-check endpoint.
type VersionInfo struct {
	Version      string `json:"version"`
	DownloadURL  string `json:"download_url"`
	ReleaseNotes string `json:"release_notes"`
}

// RunStatus is the lifecycle state of a triggered sync run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunProgress is the queryable progress snapshot of a sync workflow.
type RunProgress struct {
	Percent      int       `json:"percent"`
	Stage        string    `json:"stage"`
	Status       RunStatus `json:"status"`
	DienstCount  int       `json:"dienst_count"`
	IcalURL      string    `json:"ical_url,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// WSMessage is the frame sent over the run progress websocket.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
