package session

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store keeps the only shared mutable state in the process: per-user cooldown
// timestamps and the per-user set of already-narrated place titles. Both are
// expiring caches, so entries remove themselves without per-entry timers and
// the janitor goroutines stop when the process exits.
type Store struct {
	logger    *slog.Logger
	cooldowns *cache.Cache
	told      *cache.Cache
}

func NewStore(cooldown, toldPlaceTTL time.Duration, logger *slog.Logger) *Store {
	return &Store{
		logger:    logger,
		cooldowns: cache.New(cooldown, time.Minute),
		told:      cache.New(toldPlaceTTL, 10*time.Minute),
	}
}

// TryAcquire records the request timestamp for the user and reports whether
// the pipeline may run. The write happens on acceptance, before any upstream
// call, which bounds in-flight work per user to roughly one.
func (s *Store) TryAcquire(userID int64) bool {
	err := s.cooldowns.Add(cooldownKey(userID), time.Now(), cache.DefaultExpiration)
	if err != nil {
		s.logger.Debug("user within cooldown window", slog.Int64("user_id", userID))
		return false
	}
	return true
}

// WasTold reports whether the place was narrated to the user within the
// retention window.
func (s *Store) WasTold(userID int64, title string) bool {
	_, found := s.told.Get(toldKey(userID, title))
	return found
}

// MarkTold records the place for the user; the entry expires on its own.
func (s *Store) MarkTold(userID int64, title string) {
	s.told.Set(toldKey(userID, title), struct{}{}, cache.DefaultExpiration)
}

func cooldownKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func toldKey(userID int64, title string) string {
	return fmt.Sprintf("%d|%s", userID, title)
}
