package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create tables
	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		member_id TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		password_change_required INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS activation_token (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		used INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (account_id) REFERENCES account(id)
	);

	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		address_line1 TEXT NOT NULL DEFAULT '',
		address_line2 TEXT NOT NULL DEFAULT '',
		address_city TEXT NOT NULL DEFAULT '',
		address_postcode TEXT NOT NULL DEFAULT '',
		emergency_name TEXT NOT NULL DEFAULT '',
		emergency_phone TEXT NOT NULL DEFAULT '',
		emergency_relation TEXT NOT NULL DEFAULT '',
		ministry_id TEXT,
		status TEXT NOT NULL,
		joined_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS family_member (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		relation TEXT NOT NULL,
		birth_year INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (member_id) REFERENCES member(id)
	);

	CREATE TABLE IF NOT EXISTS ministry (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		leader TEXT,
		roles TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assignment (
		id TEXT PRIMARY KEY,
		assignee_kind TEXT NOT NULL,
		assignee_id TEXT NOT NULL,
		ministry_id TEXT,
		event_id TEXT,
		role TEXT NOT NULL,
		starts_at TEXT,
		ends_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		starts_at TEXT NOT NULL,
		ends_at TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS registration (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		status TEXT NOT NULL,
		registered_at TEXT NOT NULL,
		UNIQUE (event_id, member_id),
		FOREIGN KEY (event_id) REFERENCES event(id),
		FOREIGN KEY (member_id) REFERENCES member(id)
	);

	CREATE TABLE IF NOT EXISTS check_in (
		id TEXT PRIMARY KEY,
		member_id TEXT,
		guest_name TEXT NOT NULL DEFAULT '',
		event_id TEXT,
		service_date TEXT,
		method TEXT NOT NULL,
		checked_in_at TEXT NOT NULL,
		undone_at TEXT
	);

	CREATE TABLE IF NOT EXISTS kiosk_session (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		event_id TEXT,
		service_date TEXT,
		started_at TEXT NOT NULL,
		ended_at TEXT,
		FOREIGN KEY (account_id) REFERENCES account(id)
	);

	CREATE TABLE IF NOT EXISTS vote (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		options TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		status TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ballot (
		id TEXT PRIMARY KEY,
		vote_id TEXT NOT NULL,
		option TEXT NOT NULL,
		cast_at TEXT NOT NULL,
		FOREIGN KEY (vote_id) REFERENCES vote(id)
	);

	CREATE TABLE IF NOT EXISTS ballot_receipt (
		vote_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		cast_at TEXT NOT NULL,
		PRIMARY KEY (vote_id, member_id)
	);

	CREATE TABLE IF NOT EXISTS campaign (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		message TEXT NOT NULL,
		fields TEXT NOT NULL DEFAULT '[]',
		recipients TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		start_at TEXT,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_response (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		answers TEXT NOT NULL DEFAULT '{}',
		completed INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		UNIQUE (campaign_id, member_id),
		FOREIGN KEY (campaign_id) REFERENCES campaign(id)
	);

	CREATE TABLE IF NOT EXISTS payment (
		id TEXT PRIMARY KEY,
		member_id TEXT,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		fund TEXT NOT NULL,
		method TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		received_at TEXT NOT NULL,
		recorded_by TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_txn (
		id TEXT PRIMARY KEY,
		fund TEXT NOT NULL,
		direction TEXT NOT NULL,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		payment_id TEXT,
		occurred_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS budget (
		id TEXT PRIMARY KEY,
		fund TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		UNIQUE (fund, period_start)
	);

	CREATE TABLE IF NOT EXISTS notice (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		created_by TEXT NOT NULL,
		published_by TEXT,
		target_id TEXT,
		author_name TEXT NOT NULL DEFAULT '',
		show_author INTEGER NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT 'gold',
		pinned INTEGER NOT NULL DEFAULT 0,
		pinned_at TEXT,
		visible_from TEXT,
		visible_until TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT,
		published_at TEXT
	);

	CREATE TABLE IF NOT EXISTS consent (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		type TEXT NOT NULL,
		granted INTEGER NOT NULL,
		granted_at TEXT NOT NULL,
		revoked_at TEXT,
		source TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		version TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (member_id) REFERENCES member(id)
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		actor_email TEXT NOT NULL DEFAULT '',
		actor_role TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS feature_flag (
		key TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		enabled_admin INTEGER NOT NULL DEFAULT 0,
		enabled_staff INTEGER NOT NULL DEFAULT 0,
		enabled_member INTEGER NOT NULL DEFAULT 0,
		beta_override INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS wizard_draft (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		account_id TEXT NOT NULL,
		record_id TEXT,
		step TEXT NOT NULL,
		fields TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS report_request (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		member_id TEXT,
		requested_by TEXT NOT NULL,
		status TEXT NOT NULL,
		format TEXT NOT NULL,
		period_start TEXT,
		period_end TEXT,
		requested_at TEXT NOT NULL,
		completed_at TEXT,
		downloaded_at TEXT,
		expired_at TEXT,
		file_path TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_check_in_event ON check_in(event_id);
	CREATE INDEX IF NOT EXISTS idx_check_in_service ON check_in(service_date);
	CREATE INDEX IF NOT EXISTS idx_registration_event ON registration(event_id);
	CREATE INDEX IF NOT EXISTS idx_ballot_vote ON ballot(vote_id);
	CREATE INDEX IF NOT EXISTS idx_response_campaign ON campaign_response(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_payment_fund ON payment(fund);
	CREATE INDEX IF NOT EXISTS idx_txn_fund ON ledger_txn(fund);
	CREATE INDEX IF NOT EXISTS idx_wizard_draft_owner ON wizard_draft(account_id, kind);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
