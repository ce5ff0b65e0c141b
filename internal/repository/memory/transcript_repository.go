package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"ragchat-client/internal/constant"
	"ragchat-client/internal/entity"
)

// Transcript is the frozen remainder of a cleared session. Clearing is the
// only way a session's log stops growing, so the archived slice is final.
type Transcript struct {
	SessionId  string
	CreatedAt  time.Time
	ArchivedAt time.Time
	Messages   []*entity.ChatMessage
}

// TranscriptRepository keeps recently-cleared transcripts in a TTL'd cache
// so the UI can offer "show previous conversation" without persisting
// anything. Durable storage is the backend's job.
type TranscriptRepository struct {
	cache *cache.Cache
}

func NewTranscriptRepository() *TranscriptRepository {
	c := cache.New(constant.TranscriptTTL, 10*time.Minute)
	return &TranscriptRepository{cache: c}
}

func (r *TranscriptRepository) Save(t *Transcript) {
	r.cache.Set(t.SessionId, t, cache.DefaultExpiration)
}

func (r *TranscriptRepository) Get(sessionId string) (*Transcript, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*Transcript), true
	}
	return nil, false
}

func (r *TranscriptRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}

// Latest returns the most recently archived transcript, or nil when none
// survive in the cache.
func (r *TranscriptRepository) Latest() *Transcript {
	var latest *Transcript
	for _, item := range r.cache.Items() {
		t := item.Object.(*Transcript)
		if latest == nil || t.ArchivedAt.After(latest.ArchivedAt) {
			latest = t
		}
	}
	return latest
}
