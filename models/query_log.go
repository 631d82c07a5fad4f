package models

import "time"

// QueryLog is an analytics record written for every answered query.
type QueryLog struct {
	Query          string    `json:"query" bson:"query"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
	RelevantChunks int       `json:"num_relevant_chunks" bson:"num_relevant_chunks"`
	TotalDocuments int       `json:"total_documents" bson:"total_documents"`
}
