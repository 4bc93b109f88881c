package api

import (
	"eatlens-backend-go/internal/entitlement"
	"eatlens-backend-go/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AccountResponse is the reconciled profile together with every gate
// evaluated against it.
type AccountResponse struct {
	User         models.User            `json:"user"`
	Entitlements []entitlement.Decision `json:"entitlements"`
}

func newAccountResponse(u models.User) AccountResponse {
	return AccountResponse{User: u, Entitlements: entitlement.EvaluateAll(u)}
}

// ListResponse wraps collections so the envelope can grow without breaking clients.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
