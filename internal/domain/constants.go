package domain

import "time"

// Rate limited actions
const (
	ActionDownload = "download"
)

// Download limits
const (
	// MaxDeliverableBytes is the hard size gate for delivered files (50 MiB).
	MaxDeliverableBytes int64 = 50 * 1024 * 1024

	// MaxQualityOptions caps the number of distinct video tiers offered.
	MaxQualityOptions = 8

	// DownloadCooldownDuration is the per-identity gate between requests.
	DownloadCooldownDuration = 5 * time.Second
)

// Verification parameters
const (
	VerificationCodeLength = 8
	VerificationCodeTTL    = 30 * time.Minute

	// Inbox scan bounds when searching for a verification code.
	InboxScanThreads  = 20
	InboxScanMessages = 50
)
