package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	emailAdapter "parish/internal/adapters/email"
	web "parish/internal/adapters/http"
	"parish/internal/adapters/http/perf"
	smsAdapter "parish/internal/adapters/sms"
	"parish/internal/adapters/storage"
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
	"parish/internal/application/orchestrators"
	"parish/internal/domain/featureflag"
	"parish/internal/domain/outbox"
)

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	dbPath := envOrDefault("PARISH_DB_PATH", "data/parish.db")
	if dir := envOrDefault("PARISH_DATA_DIR", "data"); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create data dir: %v", err)
		}
	}

	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	// modernc sqlite serializes writes; one connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	collector := perf.NewCollector(1000)
	timed := storage.NewTimedDB(db, collector)

	stores := &web.Stores{
		AccountStore:     accountStore.NewSQLiteStore(timed),
		MemberStore:      memberStore.NewSQLiteStore(timed),
		ConsentStore:     consentStore.NewSQLiteStore(timed),
		AttendanceStore:  attendanceStore.NewSQLiteStore(timed),
		KioskStore:       kioskStore.NewSQLiteStore(timed),
		EventStore:       eventStore.NewSQLiteStore(timed),
		MinistryStore:    ministryStore.NewSQLiteStore(timed),
		NoticeStore:      noticeStore.NewSQLiteStore(timed),
		VoteStore:        voteStore.NewSQLiteStore(timed),
		CampaignStore:    campaignStore.NewSQLiteStore(timed),
		FinanceStore:     financeStore.NewSQLiteStore(timed),
		OutboxStore:      outboxStore.NewSQLiteStore(timed),
		AuditStore:       auditStore.NewSQLiteStore(timed),
		ReportStore:      reportingStore.NewSQLiteStore(timed),
		FeatureFlagStore: featureFlagStore.NewSQLiteStore(timed),
		WizardDraftStore: wizardDraftStore.NewSQLiteStore(timed),
	}

	ctx := context.Background()
	seed(ctx, stores)

	// Delivery providers. Without credentials the noop senders log instead
	// of sending, which is what development wants.
	var emailSender emailAdapter.Sender = emailAdapter.NewNoopSender()
	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		emailSender = emailAdapter.NewResendSender(apiKey,
			envOrDefault("PARISH_EMAIL_FROM", "no-reply@parish.local"))
	}
	var smsSender smsAdapter.Sender = smsAdapter.NewNoopSender()
	if endpoint := os.Getenv("PARISH_SMS_ENDPOINT"); endpoint != "" {
		smsSender = smsAdapter.NewGatewaySender(endpoint,
			os.Getenv("PARISH_SMS_TOKEN"),
			envOrDefault("PARISH_SMS_FROM", "PARISH"))
	}

	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{
			Sender: emailSender,
			From:   envOrDefault("PARISH_EMAIL_FROM", "no-reply@parish.local"),
		},
		outbox.ActionTypeSMS: &orchestrators.SMSExecutor{Sender: smsSender},
	})
	web.SetOutboxProcessor(processor)

	stopCh := make(chan struct{})
	defer close(stopCh)
	orchestrators.StartBackgroundWorker(processor, 30*time.Second, stopCh)
	startSweepers(stores, stopCh)

	web.SetDeliveryConfig(os.Getenv("PARISH_BASE_URL"), os.Getenv("PARISH_SMS_WEBHOOK_TOKEN"))
	web.ReportsDir = envOrDefault("PARISH_REPORTS_DIR", "data/reports")
	if err := os.MkdirAll(web.ReportsDir, 0o755); err != nil {
		log.Fatalf("create reports dir: %v", err)
	}
	for _, email := range strings.Split(os.Getenv("PARISH_BETA_TESTERS"), ",") {
		if email = strings.TrimSpace(email); email != "" {
			web.BetaTesters[strings.ToLower(email)] = true
		}
	}

	handler := web.NewMux(envOrDefault("PARISH_STATIC_DIR", "static"), stores, collector)

	addr := envOrDefault("PARISH_ADDR", ":8080")
	slog.Info("server_starting", "addr", addr, "db", dbPath)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

// seed makes a fresh database usable: one admin account, the known feature
// flags, and (outside production) one test account per role.
func seed(ctx context.Context, stores *web.Stores) {
	adminEmail := envOrDefault("PARISH_ADMIN_EMAIL", "admin@parish.local")
	adminPassword := os.Getenv("PARISH_ADMIN_PASSWORD")
	if adminPassword != "" {
		deps := orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore}
		if err := orchestrators.ExecuteSeedAdmin(ctx, deps, adminEmail, adminPassword); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}

	for _, flag := range featureflag.DefaultFlags() {
		if _, err := stores.FeatureFlagStore.GetByKey(ctx, flag.Key); err == nil {
			continue
		}
		if err := stores.FeatureFlagStore.Save(ctx, flag); err != nil {
			log.Fatalf("seed feature flag %s: %v", flag.Key, err)
		}
	}

	if os.Getenv("PARISH_ENV") != "production" && os.Getenv("PARISH_SEED_TEST_ACCOUNTS") == "true" {
		err := orchestrators.ExecuteSeedTestAccounts(ctx, orchestrators.TestAccountSeedDeps{
			AccountStore: stores.AccountStore,
			MemberStore:  stores.MemberStore,
		})
		if err != nil {
			log.Fatalf("seed test accounts: %v", err)
		}
	}
}

// startSweepers runs the periodic maintenance loops: vote open/close, report
// expiry, and stale wizard drafts.
func startSweepers(stores *web.Stores, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if err := orchestrators.ExecuteOpenCloseVotes(ctx, orchestrators.OpenCloseVotesDeps{
					VoteStore: stores.VoteStore,
				}); err != nil {
					slog.Error("vote_sweep_failed", "error", err)
				}
				cancel()
			case <-stopCh:
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if swept, err := orchestrators.ExecuteExpireReports(ctx, orchestrators.ExpireReportsDeps{
					ReportStore: stores.ReportStore,
				}); err != nil {
					slog.Error("report_sweep_failed", "error", err)
				} else if swept > 0 {
					slog.Info("report_sweep", "expired", swept)
				}

				cutoff := time.Now().AddDate(0, 0, -30)
				if removed, err := stores.WizardDraftStore.DeleteStale(ctx, cutoff); err != nil {
					slog.Error("wizard_draft_sweep_failed", "error", err)
				} else if removed > 0 {
					slog.Info("wizard_draft_sweep", "removed", removed)
				}
				cancel()
			case <-stopCh:
				return
			}
		}
	}()
}
