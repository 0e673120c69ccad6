// consts.go: shared configuration constants
package conf

import "time"

// Log rotation types
const (
	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)

// Delivery channels
const (
	ChannelMail = "mail"
	ChannelSMS  = "sms"
)

// Sending frequencies
const (
	FrequencyDaily     = "quotidien"
	FrequencyPollution = "pollution"
)

const (
	// DefaultHistoryWindowDays is the anti-repetition lookback window.
	DefaultHistoryWindowDays = 30

	// DefaultAnonymizationDelay is how long after unsubscription a profile's
	// contact details are kept before being wiped.
	DefaultAnonymizationDelay = 30 * 24 * time.Hour

	// DefaultBatchWorkers is the number of concurrent profile evaluations
	// during a newsletter batch run.
	DefaultBatchWorkers = 8
)
