package reporting

import (
	"encoding/json"
	"errors"
	"time"
)

// Status constants for report request lifecycle.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusDownloaded = "downloaded"
	StatusExpired    = "expired"
)

// Format constants for report file format.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Kind constants for what the report covers.
const (
	KindAttendance = "attendance"
	KindFinance    = "finance"
	KindMembers    = "members"
	KindMemberData = "member_data" // one member's full data export
)

// Domain errors.
var (
	ErrEmptyRequestID = errors.New("request_id is required")
	ErrEmptyRequester = errors.New("requested_by is required")
	ErrEmptyMemberID  = errors.New("member_id is required for member data exports")
	ErrInvalidStatus  = errors.New("invalid status transition")
	ErrNotReady       = errors.New("report not ready for download")
)

// ValidKinds contains all valid report kinds.
var ValidKinds = []string{KindAttendance, KindFinance, KindMembers, KindMemberData}

// Request represents a report request: a staff download (attendance, finance,
// members) or a member's export of their own data.
type Request struct {
	ID           string
	Kind         string
	MemberID     string // subject member, member_data only
	RequestedBy  string // account ID
	Status       string
	Format       string
	PeriodStart  time.Time // reporting window, zero = all time
	PeriodEnd    time.Time
	RequestedAt  time.Time
	CompletedAt  *time.Time
	DownloadedAt *time.Time
	ExpiredAt    *time.Time
	FilePath     string // Temporary file path (secure, random filename)
	FileSize     int64
	IPAddress    string // Audit trail
	UserAgent    string // Audit trail
}

// MemberData represents the complete member data export payload. Ballots are
// excluded: votes are secret and never attributed back to a member.
type MemberData struct {
	Member         MemberRecord         `json:"member"`
	Account        *AccountRecord       `json:"account,omitempty"`
	Family         []FamilyRecord       `json:"family,omitempty"`
	Attendance     []AttendanceRecord   `json:"attendance,omitempty"`
	Registrations  []RegistrationRecord `json:"registrations,omitempty"`
	Consents       []ConsentRecord      `json:"consents,omitempty"`
	Responses      []ResponseRecord     `json:"campaign_responses,omitempty"`
	Payments       []PaymentRecord      `json:"payments,omitempty"`
	ExportMetadata Metadata             `json:"export_metadata"`
}

// MemberRecord represents core member information.
type MemberRecord struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

// AccountRecord represents account-level information.
type AccountRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// FamilyRecord represents a linked family member.
type FamilyRecord struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Relation  string `json:"relation"`
	BirthYear int    `json:"birth_year,omitempty"`
}

// AttendanceRecord represents one check-in.
type AttendanceRecord struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id,omitempty"`
	ServiceDate string    `json:"service_date,omitempty"`
	Method      string    `json:"method"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// RegistrationRecord represents an event registration.
type RegistrationRecord struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	EventTitle   string    `json:"event_title"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ConsentRecord represents a consent grant or revocation.
type ConsentRecord struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Granted   bool       `json:"granted"`
	GrantedAt time.Time  `json:"granted_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	Version   string     `json:"version"`
}

// ResponseRecord represents a campaign reply.
type ResponseRecord struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	FieldKey   string    `json:"field_key"`
	Answer     string    `json:"answer"`
	ReceivedAt time.Time `json:"received_at"`
}

// PaymentRecord represents a recorded payment.
type PaymentRecord struct {
	ID         string    `json:"id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Fund       string    `json:"fund"`
	Method     string    `json:"method"`
	ReceivedAt time.Time `json:"received_at"`
}

// Metadata contains information about the export itself.
type Metadata struct {
	ExportDate  time.Time `json:"export_date"`
	Format      string    `json:"format"`
	Version     string    `json:"version"`
	RecordCount int       `json:"record_count"`
}

// Validate checks that the Request has valid data.
// PRE: Request fields may be empty
// POST: Returns nil if valid, error otherwise
// INVARIANT: ID, RequestedBy, RequestedAt must be set; member_data needs MemberID
func (r *Request) Validate() error {
	if r.ID == "" {
		return ErrEmptyRequestID
	}
	if r.RequestedBy == "" {
		return ErrEmptyRequester
	}
	if !isValidKind(r.Kind) {
		return errors.New("invalid kind: must be one of attendance, finance, members, member_data")
	}
	if r.Kind == KindMemberData && r.MemberID == "" {
		return ErrEmptyMemberID
	}
	if r.RequestedAt.IsZero() {
		return errors.New("requested_at must be set")
	}
	if r.Format == "" {
		r.Format = FormatCSV // Default
	}
	if r.Format != FormatJSON && r.Format != FormatCSV && r.Format != FormatXLSX {
		return errors.New("invalid format: must be 'json', 'csv', or 'xlsx'")
	}
	if !r.PeriodStart.IsZero() && !r.PeriodEnd.IsZero() && r.PeriodEnd.Before(r.PeriodStart) {
		return errors.New("period end cannot be before period start")
	}
	return nil
}

// MarkProcessing transitions the request to processing state.
// PRE: Status is pending
// POST: Status set to processing
// INVARIANT: Request must be in pending status
func (r *Request) MarkProcessing() error {
	if r.Status != StatusPending {
		return ErrInvalidStatus
	}
	r.Status = StatusProcessing
	return nil
}

// MarkReady transitions the request to ready state with file info.
// PRE: Status is processing, filePath and fileSize are valid
// POST: Status set to ready, FilePath/Size set, CompletedAt set, ExpiredAt set (7 days)
// INVARIANT: Request must be in processing status
func (r *Request) MarkReady(filePath string, fileSize int64, now time.Time) error {
	if r.Status != StatusProcessing {
		return ErrInvalidStatus
	}
	r.Status = StatusReady
	r.FilePath = filePath
	r.FileSize = fileSize
	r.CompletedAt = &now
	expiredAt := now.Add(7 * 24 * time.Hour)
	r.ExpiredAt = &expiredAt
	return nil
}

// MarkDownloaded records that the report was downloaded.
// PRE: Status is ready
// POST: Status set to downloaded, DownloadedAt set
// INVARIANT: Request must be in ready status
func (r *Request) MarkDownloaded(now time.Time) error {
	if r.Status != StatusReady {
		return ErrNotReady
	}
	r.Status = StatusDownloaded
	r.DownloadedAt = &now
	return nil
}

// IsExpired returns true if the download link has expired.
// PRE: ExpiredAt may be nil
// POST: Returns true if ExpiredAt is set and now is after it
func (r *Request) IsExpired(now time.Time) bool {
	if r.ExpiredAt == nil {
		return false
	}
	return now.After(*r.ExpiredAt)
}

// CanDownload returns true if the report is ready and not expired.
// PRE: Status and ExpiredAt are known
// POST: Returns true if status is ready and not expired
func (r *Request) CanDownload(now time.Time) bool {
	return r.Status == StatusReady && !r.IsExpired(now)
}

// ToJSON serializes the MemberData to JSON format.
// PRE: MemberData fields are populated
// POST: Returns JSON-encoded bytes
func (d *MemberData) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// NewRequest creates a new report request.
func NewRequest(id, kind, memberID, requestedBy, format string, now time.Time, ipAddress, userAgent string) *Request {
	if format == "" {
		format = FormatCSV
	}
	return &Request{
		ID:          id,
		Kind:        kind,
		MemberID:    memberID,
		RequestedBy: requestedBy,
		Status:      StatusPending,
		Format:      format,
		RequestedAt: now,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
	}
}

func isValidKind(k string) bool {
	for _, v := range ValidKinds {
		if v == k {
			return true
		}
	}
	return false
}
