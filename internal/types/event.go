package types

// LocationEvent is an incoming location share, normalized from the chat
// transport's update envelope.
type LocationEvent struct {
	UserID   int64
	ChatID   int64
	Location Coordinate
	// Live is true for edited-message (live-tracking) updates. Those are
	// processed silently: rate-limit rejections and empty/no-info notices
	// are suppressed, but side effects still occur.
	Live bool
}
