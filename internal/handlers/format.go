package handlers

import (
	"time"

	"gramqa/internal/db"
)

// formattedQuestion is a question row as served to clients: the stored
// columns plus the derived dateAsked timestamp. hasVoiceInput and reaction
// are reserved placeholders kept for API compatibility; nothing derives
// them yet.
type formattedQuestion struct {
	ID            string    `json:"id"`
	UserID        *string   `json:"userId"`
	SessionID     *string   `json:"sessionId"`
	Channel       *string   `json:"channel"`
	Question      *string   `json:"question"`
	Answer        *string   `json:"answer"`
	Ets           *string   `json:"ets"`
	GroupID       *string   `json:"groupId,omitempty"`
	Source        *string   `json:"source,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	DateAsked     *string   `json:"dateAsked"`
	HasVoiceInput bool      `json:"hasVoiceInput"`
	Reaction      string    `json:"reaction"`
}

func formatQuestion(q db.Question) formattedQuestion {
	return formattedQuestion{
		ID:            q.ID,
		UserID:        q.UserID,
		SessionID:     q.SessionID,
		Channel:       q.Channel,
		Question:      q.Question,
		Answer:        q.Answer,
		Ets:           q.Ets,
		GroupID:       q.GroupID,
		Source:        q.Source,
		CreatedAt:     q.CreatedAt,
		DateAsked:     deriveDateAsked(q.Ets),
		HasVoiceInput: false,
		Reaction:      "neutral",
	}
}

type pagination struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	Total           int  `json:"total"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	NextPage        *int `json:"nextPage"`
	PreviousPage    *int `json:"previousPage"`
}

func buildPagination(page, limit, total int) pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	p := pagination{
		Page:            page,
		Limit:           limit,
		Total:           total,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPreviousPage {
		previous := page - 1
		p.PreviousPage = &previous
	}
	return p
}
