package model

import "time"

type FileAction string

const FILE_ACTION_UPLOAD FileAction = "UPLOAD"
const FILE_ACTION_UPDATE FileAction = "UPDATE"
const FILE_ACTION_CONSOLIDATE FileAction = "CONSOLIDATE"

type FileStatus string

const FILE_PENDING FileStatus = "PENDING"
const FILE_UPLOADED FileStatus = "UPLOADED"
const FILE_ACCEPTED FileStatus = "ACCEPTED"
const FILE_REJECTED FileStatus = "REJECTED"

// InstanceFile is one versioned file record produced by an instance
// task. (FileId, Version) is the composite key within an instance.
type InstanceFile struct {
	FileId     int64      `json:"fileId"`
	Version    int        `json:"version"`
	InstanceId string     `json:"instanceId"`
	TaskId     string     `json:"taskId"`
	Action     FileAction `json:"action"`
	Status     FileStatus `json:"status"`
	Name       string     `json:"name,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
