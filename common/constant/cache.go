package constant

import "time"

const (
	TicketCacheKey  = "tickets:cache"
	TicketEntryLock = "ticket:entry_lock:%s"
)

const (
	TicketEntryLockDefaultTTL = 1 * time.Minute
)
