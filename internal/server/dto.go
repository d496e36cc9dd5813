package server

import (
	"time"

	"wbtracker/internal/domain"
)

// Request payloads

type SubmitReportRequest struct {
	Line     string          `json:"line" minLength:"1" maxLength:"2000" example:"24 dwf beamed pk 2:30"`
	Reporter domain.Reporter `json:"reporter"`
	Origin   domain.Origin   `json:"origin"`
}

type SetRSNRequest struct {
	RSN      string `json:"rsn" minLength:"1" maxLength:"12"`
	Username string `json:"username,omitempty"`
}

type SetClanRequest struct {
	Clan     string `json:"clan" minLength:"1" maxLength:"64"`
	Username string `json:"username,omitempty"`
}

// Response payloads

type SubmitReportResponse struct {
	Outcome domain.Outcome      `json:"outcome" enum:"ignored,accepted,rejected_invalid_world,rejected_no_signal,rejected_unknown_location"`
	Created bool                `json:"created"`
	Report  *domain.Report      `json:"report,omitempty"`
	Record  *domain.WorldRecord `json:"record,omitempty"`
}

type WorldsResponse struct {
	Worlds []domain.WorldRecord `json:"worlds"`
}

type TextResponse struct {
	Text string `json:"text"`
}

type ScheduleResponse struct {
	Text         string     `json:"text"`
	OffsetHours  int        `json:"offset_hours"`
	NextEvent    *time.Time `json:"next_event,omitempty"`
	UntilResetNs int64      `json:"until_reset_ns"`
}

type StatusResponse struct {
	Status domain.BotStatus `json:"status"`
	Text   string           `json:"text"`
}
