package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"matchbook/internal/service"
)

// UserHandler handles HTTP requests for user-scoped queries.
type UserHandler struct {
	books *service.BookService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(books *service.BookService) *UserHandler {
	return &UserHandler{books: books}
}

// userOrdersResponse is the JSON response for GET /users/{user_id}/orders.
type userOrdersResponse struct {
	UserID string          `json:"user_id"`
	Orders []orderResponse `json:"orders"`
}

// ListOrders handles GET /users/{user_id}/orders. An unknown user gets
// an empty list, not an error.
func (h *UserHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	views := h.books.GetUserOrders(userID)
	orders := make([]orderResponse, len(views))
	for i, v := range views {
		orders[i] = buildOrderResponse(v)
	}

	WriteJSON(w, http.StatusOK, userOrdersResponse{
		UserID: userID,
		Orders: orders,
	})
}
