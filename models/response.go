package models

type AskResponse struct {
	Answer  string `json:"answer"`
	Context string `json:"context"`
}

type IndexResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is returned by every endpoint on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
