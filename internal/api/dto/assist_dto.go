package dto

// AssistRequest is the helpdesk assistant question payload.
type AssistRequest struct {
	Question      string `json:"question"`
	KnowledgeBase string `json:"knowledge_base"`
}

// AssistResponse carries the assistant's answer.
type AssistResponse struct {
	Answer string `json:"answer"`
}
