package bonfires

import "encoding/json"

type Bonfire struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type Agent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username,omitempty"`
	BonfireID string `json:"bonfire_id,omitempty"`
	IsActive  bool   `json:"is_active,omitempty"`
}

type Episode struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Content   string `json:"content,omitempty"`
	Source    string `json:"source,omitempty"`
	ValidAt   string `json:"valid_at,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest asks an agent a question, optionally anchored to a graph node.
type ChatRequest struct {
	Message        string        `json:"message" validate:"required"`
	ChatHistory    []ChatMessage `json:"chat_history,omitempty"`
	GraphMode      string        `json:"graph_mode,omitempty" validate:"omitempty,oneof=adaptive static regenerate append"`
	CenterNodeUUID string        `json:"center_node_uuid,omitempty"`
}

type ChatResponse struct {
	Reply        string          `json:"reply"`
	GraphAction  string          `json:"graph_action,omitempty"`
	NewGraphData json.RawMessage `json:"new_graph_data,omitempty"`
}

type DataRoom struct {
	ID             string  `json:"id"`
	BonfireID      string  `json:"bonfire_id"`
	Description    string  `json:"description"`
	PriceUSD       float64 `json:"price_usd"`
	QueryLimit     int     `json:"query_limit"`
	ExpirationDays int     `json:"expiration_days"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

type CreateDataRoomRequest struct {
	Description    string  `json:"description" validate:"required"`
	SystemPrompt   string  `json:"system_prompt,omitempty"`
	CenterNodeUUID string  `json:"center_node_uuid,omitempty"`
	PriceUSD       float64 `json:"price_usd" validate:"gte=0"`
	QueryLimit     int     `json:"query_limit" validate:"gte=1"`
	ExpirationDays int     `json:"expiration_days" validate:"gte=1"`
}

type HyperBlog struct {
	ID         string `json:"id"`
	DataRoomID string `json:"dataroom_id,omitempty"`
	UserQuery  string `json:"user_query,omitempty"`
	Status     string `json:"generation_status,omitempty"`
	Preview    string `json:"preview,omitempty"`
	Content    string `json:"content,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

type HyperBlogRequest struct {
	DataRoomID string `json:"dataroom_id" validate:"required"`
	UserQuery  string `json:"user_query" validate:"required"`
	IsPublic   bool   `json:"is_public"`
	BlogLength string `json:"blog_length,omitempty" validate:"omitempty,oneof=short medium long"`
}

// JobRef is returned by endpoints that start background work.
type JobRef struct {
	JobID string `json:"job_id"`
}
