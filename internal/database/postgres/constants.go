package postgres

// Error Messages - Repository Operations
const (
	ErrMsgFailedToUpsertUser       = "failed to upsert user"
	ErrMsgFailedToGetUser          = "failed to get user"
	ErrMsgFailedToUpdateBan        = "failed to update ban flag"
	ErrMsgFailedToListIdentities   = "failed to list identities"
	ErrMsgFailedToCountUsers       = "failed to count users"
	ErrMsgFailedToCreatePending    = "failed to create pending verification"
	ErrMsgFailedToGetPending       = "failed to get pending verification"
	ErrMsgFailedToDeletePending    = "failed to delete pending verification"
	ErrMsgFailedToMarkVerified     = "failed to mark account verified"
	ErrMsgFailedToListAccounts     = "failed to list accounts"
	ErrMsgFailedToDeleteAccount    = "failed to delete account"
	ErrMsgFailedToRecordDownload   = "failed to record download"
	ErrMsgFailedToCountDownloads   = "failed to count downloads"
	ErrMsgFailedToStampCooldown    = "failed to stamp cooldown"
	ErrMsgFailedToBeginTransaction = "failed to begin transaction"
)
