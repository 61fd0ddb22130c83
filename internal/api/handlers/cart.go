package handlers

import (
	"net/http"

	"github.com/dom/pixelcart/internal/api/middleware"
	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type CartHandler struct {
	cartService *service.CartService
	logger      *logrus.Logger
}

func NewCartHandler(cartService *service.CartService, logger *logrus.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, logger: logger}
}

type CartRequest struct {
	Name       string         `json:"name"`
	IsPublic   bool           `json:"isPublic"`
	MaxPlayers int            `json:"maxPlayers"`
	Code       string         `json:"code"`
	Manifest   datatypes.JSON `json:"manifest"`
}

func (req CartRequest) input() service.CartInput {
	return service.CartInput{
		Name:       req.Name,
		IsPublic:   req.IsPublic,
		MaxPlayers: req.MaxPlayers,
		Code:       req.Code,
		Manifest:   req.Manifest,
	}
}

func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	var req CartRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	cart, err := h.cartService.CreateCart(r.Context(), userID, req.input())
	if err != nil {
		writeError(w, h.logger, "cart.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	cartID, ok := uuidParam(r, "id")
	if !ok {
		badRequest(w, "Invalid cart ID")
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), userID, cartID)
	if err != nil {
		writeError(w, h.logger, "cart.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	cartID, ok := uuidParam(r, "id")
	if !ok {
		badRequest(w, "Invalid cart ID")
		return
	}

	var req CartRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	cart, err := h.cartService.UpdateCart(r.Context(), userID, cartID, req.input())
	if err != nil {
		writeError(w, h.logger, "cart.Update", err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Fork(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	cartID, ok := uuidParam(r, "id")
	if !ok {
		badRequest(w, "Invalid cart ID")
		return
	}

	cart, err := h.cartService.ForkCart(r.Context(), userID, cartID)
	if err != nil {
		writeError(w, h.logger, "cart.Fork", err)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	cartID, ok := uuidParam(r, "id")
	if !ok {
		badRequest(w, "Invalid cart ID")
		return
	}
	limit, ok := intQuery(r, "limit")
	if !ok {
		badRequest(w, "Invalid limit")
		return
	}

	entries, err := h.cartService.Leaderboard(r.Context(), userID, cartID, limit)
	if err != nil {
		writeError(w, h.logger, "cart.Leaderboard", err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
