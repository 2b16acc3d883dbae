package models

import "time"

type Result struct {
	Executed  []string
	Skipped   []string
	Failed    []FailedTarget
	Artifacts []Artifact
	Duration  time.Duration
}

type FailedTarget struct {
	ID    string
	Error error
}

type Artifact struct {
	TargetID string
	Files    []string
	Hash     string
	Size     int64
}
