package models

const (
	IPCArchiveCreate = "archive.create"
	IPCArchiveError  = "archive.error"
)

// IPCEvent is a named message for the supervising process. Args keep the
// positional payload of the event.
type IPCEvent struct {
	Name string `json:"event"`
	Args []any  `json:"args"`
}
