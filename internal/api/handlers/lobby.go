package handlers

import (
	"net/http"

	"github.com/dom/pixelcart/internal/api/middleware"
	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type LobbyHandler struct {
	lobbyService *service.LobbyService
	logger       *logrus.Logger
}

func NewLobbyHandler(lobbyService *service.LobbyService, logger *logrus.Logger) *LobbyHandler {
	return &LobbyHandler{lobbyService: lobbyService, logger: logger}
}

type CreateLobbyRequest struct {
	CartID     string `json:"cartId"`
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
}

type SetReadyRequest struct {
	Ready bool `json:"ready"`
}

type ListLobbiesResponse struct {
	Lobbies       []*domain.Lobby `json:"lobbies"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

type StartGameResponse struct {
	GameInstanceID uuid.UUID            `json:"gameInstanceId"`
	Game           *domain.GameInstance `json:"game"`
}

func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := service.ListLobbiesInput{
		Status:    domain.LobbyStatus(q.Get("status")),
		PageToken: q.Get("pageToken"),
	}

	if raw := q.Get("cartId"); raw != "" {
		cartID, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "Invalid cart ID")
			return
		}
		input.CartID = &cartID
	}

	pageSize, ok := intQuery(r, "pageSize")
	if !ok {
		badRequest(w, "Invalid page size")
		return
	}
	input.PageSize = pageSize

	page, err := h.lobbyService.ListLobbies(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, "lobby.List", err)
		return
	}

	resp := ListLobbiesResponse{Lobbies: page.Lobbies, NextPageToken: page.NextPageToken}
	if resp.Lobbies == nil {
		resp.Lobbies = []*domain.Lobby{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	var req CreateLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		badRequest(w, "Invalid cart ID")
		return
	}

	lobby, err := h.lobbyService.CreateLobby(r.Context(), userID, service.CreateLobbyInput{
		CartID:     cartID,
		Name:       req.Name,
		MaxPlayers: req.MaxPlayers,
	})
	if err != nil {
		writeError(w, h.logger, "lobby.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, lobby)
}

func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	lobbyID, ok := uuidParam(r, "id")
	if !ok {
		badRequest(w, "Invalid lobby ID")
		return
	}

	lobby, err := h.lobbyService.GetLobby(r.Context(), lobbyID)
	if err != nil {
		writeError(w, h.logger, "lobby.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

// lobbyAction resolves the caller and lobby id shared by the member routes.
func (h *LobbyHandler) lobbyAction(w http.ResponseWriter, r *http.Request) (userID, lobbyID uuid.UUID, ok bool) {
	userID, ok = middleware.GetUserID(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	lobbyID, ok = uuidParam(r, "id")
	if !ok {
		badRequest(w, "Invalid lobby ID")
	}
	return
}

func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, lobbyID, ok := h.lobbyAction(w, r)
	if !ok {
		return
	}

	lobby, err := h.lobbyService.JoinLobby(r.Context(), lobbyID, userID)
	if err != nil {
		writeError(w, h.logger, "lobby.Join", err)
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

func (h *LobbyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, lobbyID, ok := h.lobbyAction(w, r)
	if !ok {
		return
	}

	lobby, err := h.lobbyService.LeaveLobby(r.Context(), lobbyID, userID)
	if err != nil {
		writeError(w, h.logger, "lobby.Leave", err)
		return
	}
	if lobby == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

func (h *LobbyHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	userID, lobbyID, ok := h.lobbyAction(w, r)
	if !ok {
		return
	}

	var req SetReadyRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	lobby, err := h.lobbyService.SetReady(r.Context(), lobbyID, userID, req.Ready)
	if err != nil {
		writeError(w, h.logger, "lobby.SetReady", err)
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

func (h *LobbyHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, lobbyID, ok := h.lobbyAction(w, r)
	if !ok {
		return
	}

	game, err := h.lobbyService.StartGame(r.Context(), lobbyID, userID)
	if err != nil {
		writeError(w, h.logger, "lobby.Start", err)
		return
	}
	writeJSON(w, http.StatusOK, StartGameResponse{GameInstanceID: game.ID, Game: game})
}
