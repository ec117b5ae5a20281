package memory

import (
	"github.com/patrickmn/go-cache"

	"resident-sim-be/pkg/store"
)

// SessionRepository is the process-wide keyed session table. Sessions never
// expire on their own; they live until the global clear-all.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.NoExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

// Clear drops every session. The only way a session is ever destroyed.
func (r *SessionRepository) Clear() {
	r.cache.Flush()
}
