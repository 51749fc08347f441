package domain

import "time"

// Topic names one replicated concern. Every mutation of that concern
// produces a change notice on its topic.
type Topic string

const (
	TopicWallet  Topic = "wallet"
	TopicSession Topic = "session"
)

func Topics() []Topic {
	return []Topic{TopicWallet, TopicSession}
}

func (t Topic) Valid() bool {
	return t == TopicWallet || t == TopicSession
}

// ChangeNotice announces that a topic's persisted state changed. Receivers
// reload from the store instead of trusting anything else in the notice.
type ChangeNotice struct {
	Topic  Topic     `json:"topic"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}
