package model

import "time"

// CommandRequest carries one natural-language command from a front end.
type CommandRequest struct {
	Text      string `json:"text"`
	UserID    string `json:"userId"`
	RequestID string `json:"requestId,omitempty"`
}

// CommandResult is the structured outcome of a command.
type CommandResult struct {
	Message  string                 `json:"message"`
	ThreadID string                 `json:"threadId"`
	Success  bool                   `json:"success"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// EnvStatus is the read-side view of one environment.
type EnvStatus struct {
	State           EnvState      `json:"state"`
	LastUpdated     time.Time     `json:"lastUpdated"`
	TicketCount     int           `json:"ticketCount"`
	ScreenshotCount int           `json:"screenshotCount"`
	EmailCount      int           `json:"emailCount"`
	HasSecret       bool          `json:"hasSecret"`
	RedirectURIs    *RedirectURIs `json:"redirectUris,omitempty"`
	People          People        `json:"people"`
	Blockers        []string      `json:"blockers,omitempty"`
	NextActions     []string      `json:"nextActions,omitempty"`
}

// ThreadStatus is the read-side aggregate returned by the status query.
type ThreadStatus struct {
	ThreadID           string                `json:"threadId"`
	DisplayName        string                `json:"displayName"`
	Owner              string                `json:"owner"`
	Summary            string                `json:"summary"`
	OverallProgress    float64               `json:"overallProgress"`
	CurrentEnvironment EnvKind               `json:"currentEnvironment,omitempty"`
	Environments       map[EnvKind]EnvStatus `json:"environments"`
	Blockers           []string              `json:"blockers,omitempty"`
	NextActions        []string              `json:"nextActions,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	LastUpdate         time.Time             `json:"lastUpdate"`
}

// TicketUpdate is the inbound payload of the ticket-status-changed hook.
type TicketUpdate struct {
	TicketID  string                 `json:"ticketId"`
	System    string                 `json:"system"`
	Status    string                 `json:"status"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// EmailUpdate is the inbound payload of the email-received hook.
type EmailUpdate struct {
	MessageID  string    `json:"messageId"`
	ThreadID   string    `json:"threadId"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"sender"`
	ReceivedAt time.Time `json:"receivedAt"`
	Content    string    `json:"content,omitempty"`
}
