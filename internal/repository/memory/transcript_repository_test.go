package memory

import (
	"testing"
	"time"

	"ragchat-client/internal/entity"
)

func TestTranscriptRoundTrip(t *testing.T) {
	repo := NewTranscriptRepository()

	now := time.Now()
	msg := entity.NewUserMessage("hello", now)
	_ = msg.MarkDelivered()

	repo.Save(&Transcript{
		SessionId:  "abc",
		CreatedAt:  now,
		ArchivedAt: now,
		Messages:   []*entity.ChatMessage{msg},
	})

	got, found := repo.Get("abc")
	if !found {
		t.Fatal("transcript not found after save")
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello" {
		t.Errorf("unexpected transcript contents: %+v", got.Messages)
	}

	repo.Delete("abc")
	if _, found := repo.Get("abc"); found {
		t.Error("transcript still present after delete")
	}
}

func TestLatestPicksNewestArchive(t *testing.T) {
	repo := NewTranscriptRepository()

	base := time.Now()
	repo.Save(&Transcript{SessionId: "old", ArchivedAt: base.Add(-time.Minute)})
	repo.Save(&Transcript{SessionId: "new", ArchivedAt: base})

	latest := repo.Latest()
	if latest == nil || latest.SessionId != "new" {
		t.Errorf("Latest = %+v, want session %q", latest, "new")
	}
}

func TestLatestEmpty(t *testing.T) {
	repo := NewTranscriptRepository()
	if latest := repo.Latest(); latest != nil {
		t.Errorf("Latest on empty repo = %+v, want nil", latest)
	}
}
