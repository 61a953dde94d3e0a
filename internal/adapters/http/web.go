package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"parish/internal/adapters/http/middleware"
	"parish/internal/adapters/http/perf"
	accountStore "parish/internal/adapters/storage/account"
	attendanceStore "parish/internal/adapters/storage/attendance"
	auditStore "parish/internal/adapters/storage/audit"
	campaignStore "parish/internal/adapters/storage/campaign"
	consentStore "parish/internal/adapters/storage/consent"
	eventStore "parish/internal/adapters/storage/event"
	featureFlagStore "parish/internal/adapters/storage/featureflag"
	financeStore "parish/internal/adapters/storage/finance"
	kioskStore "parish/internal/adapters/storage/kiosk"
	memberStore "parish/internal/adapters/storage/member"
	ministryStore "parish/internal/adapters/storage/ministry"
	noticeStore "parish/internal/adapters/storage/notice"
	outboxStore "parish/internal/adapters/storage/outbox"
	reportingStore "parish/internal/adapters/storage/reporting"
	voteStore "parish/internal/adapters/storage/vote"
	wizardDraftStore "parish/internal/adapters/storage/wizarddraft"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore     accountStore.Store
	MemberStore      memberStore.Store
	ConsentStore     consentStore.Store
	AttendanceStore  attendanceStore.Store
	KioskStore       kioskStore.Store
	EventStore       eventStore.Store
	MinistryStore    ministryStore.Store
	NoticeStore      noticeStore.Store
	VoteStore        voteStore.Store
	CampaignStore    campaignStore.Store
	FinanceStore     financeStore.Store
	OutboxStore      outboxStore.Store
	AuditStore       auditStore.Store
	ReportStore      reportingStore.Store
	FeatureFlagStore featureFlagStore.Store
	WizardDraftStore wizardDraftStore.Store
}

// loadCSRFKey reads the CSRF secret from PARISH_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("PARISH_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("PARISH_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("PARISH_ENV") == "production" {
		log.Fatal("PARISH_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set PARISH_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// BaseURL is the externally visible origin, used in activation links.
var BaseURL = "http://localhost:8080"

// ReportsDir is where generated report files land.
var ReportsDir = "data/reports"

// SMSWebhookToken authenticates the gateway's inbound-reply callback. Empty
// disables the webhook.
var SMSWebhookToken = ""

// BetaTesters holds account emails that receive beta-flagged features.
var BetaTesters = map[string]bool{}

// SetDeliveryConfig sets the externally visible origin and the inbound SMS
// webhook secret.
func SetDeliveryConfig(baseURL, smsToken string) {
	if baseURL != "" {
		BaseURL = baseURL
	}
	SMSWebhookToken = smsToken
}

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("PARISH_ENV") == "production"

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> Auth -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
