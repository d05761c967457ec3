package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultHistoryLimit = 100

	// In-memory shared cache keeps history out of the filesystem by default.
	DefaultDatabasePath      = "file::memory:?cache=shared"
	DefaultDatabaseRetention = 24 * time.Hour

	DefaultMetricsAddress = ":9090"

	DefaultHistoryPruneSchedule   = "0 */15 * * * *"
	DefaultSQLMaintenanceSchedule = "0 0 4 * * *"
)

// Default bot messages
const (
	DefaultWelcomeMsg       = "Hi! Send !s search/replacement to fix the last message that contains search."
	DefaultHelpMsg          = "Usage: !s search/replacement\nLeave the replacement empty to delete the search text."
	DefaultBlockedPhraseMsg = "That phrase is not allowed."
	DefaultResetDoneMsg     = "Message history cleared for this chat."
	DefaultUnauthorizedMsg  = "You are not authorized to use this command."
	DefaultGeneralErrorMsg  = "An error occurred. Please try again later."
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("replacer.search_phrases_to_block", []string{})
	v.SetDefault("replacer.history_limit", DefaultHistoryLimit)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.retention", DefaultDatabaseRetention)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", DefaultMetricsAddress)

	v.SetDefault("messages.welcome", DefaultWelcomeMsg)
	v.SetDefault("messages.help", DefaultHelpMsg)
	v.SetDefault("messages.blocked_phrase", DefaultBlockedPhraseMsg)
	v.SetDefault("messages.no_match", "")
	v.SetDefault("messages.reset_done", DefaultResetDoneMsg)
	v.SetDefault("messages.unauthorized", DefaultUnauthorizedMsg)
	v.SetDefault("messages.general_error", DefaultGeneralErrorMsg)

	v.SetDefault("scheduler.tasks.history_prune.enabled", true)
	v.SetDefault("scheduler.tasks.history_prune.schedule", DefaultHistoryPruneSchedule)
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", false)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", DefaultSQLMaintenanceSchedule)
}
