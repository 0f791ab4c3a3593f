package dto

import "time"

type PropertyResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location"`
	Type        string          `json:"type"`
	Price       int64           `json:"price"`
	Available   bool            `json:"available"`
	OwnerName   string          `json:"owner_name"`
	OwnerPhone  string          `json:"owner_phone"`
	CreatedAt   time.Time       `json:"created_at"`
	Photos      []PhotoResponse `json:"photos,omitempty"`
}

type PhotoResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Warning  string `json:"warning,omitempty"`
}

type CreatePropertyResponse struct {
	Property PropertyResponse    `json:"property"`
	Photos   []PhotoUploadResult `json:"photos"`
}

type PhotoUploadResult struct {
	Filename string `json:"filename"`
	Outcome  string `json:"outcome"`
	Message  string `json:"message,omitempty"`
	PhotoID  string `json:"photo_id,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

type SearchResponse struct {
	Properties []PropertyResponse `json:"properties"`
	Count      int                `json:"count"`
}

type StatsResponse struct {
	TotalProperties int `json:"total_properties"`
	Available       int `json:"available"`
	TotalPhotos     int `json:"total_photos"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
