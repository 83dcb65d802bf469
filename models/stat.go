package models

import "time"

type StatEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Path      string    `json:"path,omitempty"`
	Name      string    `json:"name,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func (e StatEvent) IsError() bool {
	return e.Error != ""
}
