package featureflag

// DefaultFlags returns the known feature flags and their default settings.
//
// These are intended to represent broad, user-visible areas of the product.
// As new major features are added, append to this list.
func DefaultFlags() []FeatureFlag {
	return []FeatureFlag{
		{
			Key:           "member_mgmt",
			Description:   "Member management (directory, profiles, families)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: false,
		},
		{
			Key:           "attendance",
			Description:   "Attendance (check-ins, attendance views)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: false,
		},
		{
			Key:           "events",
			Description:   "Events (services, classes, registrations)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: true,
		},
		{
			Key:           "votes",
			Description:   "Congregational votes (ballots, results)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: true,
		},
		{
			Key:           "campaigns",
			Description:   "SMS campaigns (outreach, response collection)",
			EnabledAdmin:  true,
			EnabledStaff:  false,
			EnabledMember: false,
		},
		{
			Key:           "finance",
			Description:   "Finance (payments, budgets, reports)",
			EnabledAdmin:  true,
			EnabledStaff:  false,
			EnabledMember: false,
		},
		{
			Key:           "notices",
			Description:   "Notice board (announcements)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: true,
		},
		{
			Key:           "ministries",
			Description:   "Ministries (teams, volunteer assignments)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: true,
		},
		{
			Key:           "reports",
			Description:   "Report downloads (CSV, spreadsheets)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: false,
		},
		{
			Key:           "kiosk",
			Description:   "Kiosk check-in mode",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: false,
		},
	}
}
