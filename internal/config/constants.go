package config

const (
	// defaultTokenURL is the Warcraft Logs OAuth2 token endpoint.
	defaultTokenURL = "https://www.warcraftlogs.com/oauth/token"

	// defaultGraphQLURL is the Warcraft Logs v2 client API endpoint.
	defaultGraphQLURL = "https://www.warcraftlogs.com/api/v2/client"

	// maxReportPageLimit is the largest page size the provider accepts
	// for the guild report listing.
	maxReportPageLimit = 100

	// DefaultDifficulty is the encounter difficulty assumed when a
	// request does not specify one (Mythic).
	DefaultDifficulty = 5

	// DateFormat is the calendar-day format used in column headers and
	// file names.
	DateFormat = "2006-01-02"

	// BossRegistryFile is the JSON file holding the boss/ability
	// registry inside the config directory.
	BossRegistryFile = "bosses.json"
)

// ReportBaseURL is the public browse URL prefix for a report code.
const ReportBaseURL = "https://www.warcraftlogs.com/reports/"
