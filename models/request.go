package models

// AskRequest is the body of POST /ask. History is optional and only used to
// turn a follow-up question into a standalone one.
type AskRequest struct {
	Question string   `json:"question"`
	History  []string `json:"history,omitempty"`
}
