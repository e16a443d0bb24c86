package discord

// Friendly message constants for Discord responses
const (
	MsgHelp = "👋 **Hi!** Send me a link and I'll fetch the media for you.\n\n" +
		"**Commands**\n" +
		"`/verify <username>` — link your provider account\n" +
		"`/confirm` — finish verification after sending the code\n" +
		"`/accounts` — list your linked accounts\n" +
		"`/cancel` — abort whatever we're doing\n"

	MsgWorking         = "⏳ Working on it…"
	MsgNotDownloadable = "❓ **No Link Found**\nI couldn't find a supported link in that message."
	MsgTooLarge        = "📦 **Too Big**\nThat file is over the 50 MiB delivery limit."
	MsgFetchFailed     = "❌ **Download Failed**\nThe source refused or the media is gone."
	MsgQueueFull       = "🚦 **Busy**\nToo many downloads in flight. Try again in a moment."
	MsgBanned          = "🚫 **Access Revoked**"
	MsgGenericError    = "❌ Something went wrong."

	MsgNeedsVerification = "🔐 **Verification Required**\n" +
		"Provider links need a linked account. Run `/verify <your-username>` first."
	MsgVerifyUsage       = "Usage: `/verify <provider-username>`"
	MsgVerifyBadUsername = "❓ **Invalid Username**\nMaybe check the spelling?"
	MsgConfirmNothing    = "❓ **Nothing To Confirm**\nStart with `/verify <username>`."
	MsgConfirmNotFound   = "🔎 **Code Not Found**\nSend the code from my provider account's DMs, then `/confirm` again."
	MsgConfirmExpired    = "⌛ **Code Expired**\nRun `/verify <username>` to get a fresh one."
	MsgConfirmDone       = "✅ **Verified!**\nProvider links are unlocked."

	MsgSelectionExpired = "⌛ **Menu Expired**\nSend the link again to get a fresh menu."
	MsgCancelled        = "👍 Cancelled."
	MsgNothingToCancel  = "🤷 Nothing to cancel."

	MsgAdminOnly       = "🔒 **Admins Only**"
	MsgAskUsername     = "👤 Provider username?"
	MsgAskPassword     = "🔑 Password? (delete your message once I confirm)"
	MsgAskTwoFactor    = "🔢 Two-factor code?"
	MsgAskBlob         = "📎 Attach the session file."
	MsgAskBroadcast    = "📣 Send the announcement text."
	MsgSessionDeleted  = "🗑️ Session deleted."
	MsgBlobInvalid     = "❌ **Bad Session File**\nThat doesn't look like a credential blob."
	MsgLoginThrottled  = "🚦 **Provider Throttled**\nWait a while before trying again."
	MsgLoginChallenge  = "⚠️ **Challenge Required**\nThe provider wants an interactive check. Resolve it in the app, then upload the session file."
	MsgLoginRejected   = "❌ **Login Rejected**\nCheck the credentials."
	MsgLoginOK         = "✅ Logged in and session persisted."
)
