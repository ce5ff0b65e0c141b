package metrics

import (
	"ragchat-client/internal/entity"
)

// Summary is derived from the message log on demand; nothing here holds
// mutable state.
type Summary struct {
	MessageCount       int
	DeliveredExchanges int
	ErroredExchanges   int
	// AverageResponseTimeSeconds is the mean over delivered assistant
	// messages. Zero when no such message exists (documented choice:
	// zero, not NaN or a null marker).
	AverageResponseTimeSeconds float64
}

func Compute(messages []*entity.ChatMessage) Summary {
	s := Summary{MessageCount: len(messages)}

	var total float64
	var delivered int
	for _, m := range messages {
		if m.IsAssistant() && m.Lifecycle == entity.LifecycleDelivered {
			delivered++
			total += m.ResponseTimeSeconds
		}
		if !m.IsAssistant() && m.Lifecycle == entity.LifecycleErrored {
			s.ErroredExchanges++
		}
	}

	s.DeliveredExchanges = delivered
	if delivered > 0 {
		s.AverageResponseTimeSeconds = total / float64(delivered)
	}
	return s
}

func MessageCount(messages []*entity.ChatMessage) int {
	return len(messages)
}

func AverageResponseTimeSeconds(messages []*entity.ChatMessage) float64 {
	return Compute(messages).AverageResponseTimeSeconds
}
