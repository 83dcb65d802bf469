package models

type User struct {
	Username string `json:"username"`
	Home     string `json:"home"`
	Archive  string `json:"archive"`
}
