package api

// CreateArchive
type createArchiveReq struct {
	Name        string   `json:"name"`
	Dir         string   `json:"dir"`
	Paths       []string `json:"paths"`
	Directories []string `json:"directories"`
	Background  bool     `json:"background"`
}
