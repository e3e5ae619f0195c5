package dto

import "github.com/noah-isme/sao-registrar-api/internal/repository"

// TranscriptResponse lists a student's course lines.
type TranscriptResponse struct {
	StudentID string                     `json:"studentId"`
	Rows      []repository.TranscriptRow `json:"rows"`
}

// GWAResponse carries a student's GWA formatted to two decimals.
type GWAResponse struct {
	StudentID string `json:"studentId"`
	GWA       string `json:"gwa"`
}

// DeansListResponse lists qualifying students.
type DeansListResponse struct {
	Count    int                       `json:"count"`
	Students []repository.DeansListRow `json:"students"`
}
