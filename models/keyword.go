package models

import "time"

// Keyword is one topic extracted from a call transcript. Records are written
// once and never updated.
type Keyword struct {
	ID        string    `bson:"keyword_id" json:"keywordId"`
	Text      string    `bson:"keyword" json:"keyword"`
	Weight    int       `bson:"weight" json:"weight"`
	CallID    int64     `bson:"videocall_id" json:"callId"`
	CreatedAt time.Time `bson:"date" json:"createdAt"`
}

// ExtractedKeyword is a (text, weight) pair parsed from a Gemini reply, before
// it has an id or a timestamp.
type ExtractedKeyword struct {
	Text   string `json:"keyword"`
	Weight int    `json:"weight"`
}

// Texts returns the keyword phrases in order.
func Texts(keywords []Keyword) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = kw.Text
	}
	return out
}

type ProcessCallRequest struct {
	CallID *int64 `json:"callId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type ProcessCallResponse struct {
	Status   int      `json:"status"`
	CallID   int64    `json:"callId"`
	Keywords []string `json:"keywords,omitempty"`
	TaskID   string   `json:"taskId,omitempty"`
}

type KeywordListResponse struct {
	Status   int       `json:"status"`
	Keywords []Keyword `json:"keywords"`
}

type RecommendRequest struct {
	CallIDs []int64 `json:"callIds"`
}

type RecommendResponse struct {
	Status              int      `json:"status"`
	RecommendedKeywords []string `json:"recommendedKeywords"`
	RecommendedTopic    string   `json:"recommendedTopic,omitempty"`
}

type LetterRequest struct {
	Text string `json:"text" binding:"required"`
}

type LetterResponse struct {
	Status int    `json:"status"`
	Letter string `json:"letter"`
}
