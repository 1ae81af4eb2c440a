package config

const (
	// TopicIngestFile is the NSQ topic for uploaded-file processing tasks.
	TopicIngestFile = "ingest.file"
)
