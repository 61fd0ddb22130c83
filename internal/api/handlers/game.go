package handlers

import (
	"net/http"

	"github.com/dom/pixelcart/internal/api/middleware"
	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/service"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type GameHandler struct {
	matchService     *service.MatchService
	signalingService *service.SignalingService
	logger           *logrus.Logger
}

func NewGameHandler(matchService *service.MatchService, signalingService *service.SignalingService, logger *logrus.Logger) *GameHandler {
	return &GameHandler{
		matchService:     matchService,
		signalingService: signalingService,
		logger:           logger,
	}
}

type MatchPlayerRequest struct {
	PlayerID  int            `json:"playerId"`
	Score     int64          `json:"score"`
	Placement int            `json:"placement"`
	Stats     datatypes.JSON `json:"stats,omitempty"`
}

type SaveMatchResultRequest struct {
	CartID     string               `json:"cartId"`
	Players    []MatchPlayerRequest `json:"players"`
	DurationMs int64                `json:"durationMs"`
}

type SendSignalRequest struct {
	FromPlayerID int             `json:"fromPlayerId"`
	ToPlayerID   int             `json:"toPlayerId"`
	SignalType   string          `json:"signalType"`
	SignalData   json.RawMessage `json:"signalData"`
}

type SignalsResponse struct {
	Signals []domain.Signal `json:"signals"`
}

func (h *GameHandler) gameAction(w http.ResponseWriter, r *http.Request) (userID, gameID uuid.UUID, ok bool) {
	userID, ok = middleware.GetUserID(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	gameID, ok = uuidParam(r, "id")
	if !ok {
		badRequest(w, "Invalid game instance ID")
	}
	return
}

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := h.gameAction(w, r)
	if !ok {
		return
	}

	game, err := h.matchService.GetGameInstance(r.Context(), gameID)
	if err != nil {
		writeError(w, h.logger, "game.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *GameHandler) ReportRunning(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.gameAction(w, r)
	if !ok {
		return
	}

	game, err := h.matchService.ReportRunning(r.Context(), gameID, userID)
	if err != nil {
		writeError(w, h.logger, "game.ReportRunning", err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *GameHandler) SaveResult(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.gameAction(w, r)
	if !ok {
		return
	}

	var req SaveMatchResultRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	input := service.SaveMatchResultInput{DurationMs: req.DurationMs}
	if req.CartID != "" {
		cartID, err := uuid.Parse(req.CartID)
		if err != nil {
			badRequest(w, "Invalid cart ID")
			return
		}
		input.CartID = cartID
	}
	for _, p := range req.Players {
		input.Players = append(input.Players, service.MatchPlayerInput{
			PlayerID:  p.PlayerID,
			Score:     p.Score,
			Placement: p.Placement,
			Stats:     p.Stats,
		})
	}

	result, err := h.matchService.SaveMatchResult(r.Context(), userID, gameID, input)
	if err != nil {
		writeError(w, h.logger, "game.SaveResult", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *GameHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := h.gameAction(w, r)
	if !ok {
		return
	}

	result, err := h.matchService.GetMatchResult(r.Context(), gameID)
	if err != nil {
		writeError(w, h.logger, "game.GetResult", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *GameHandler) SendSignal(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.gameAction(w, r)
	if !ok {
		return
	}

	var req SendSignalRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	msg, err := h.signalingService.SendSignal(r.Context(), userID, service.SendSignalInput{
		GameInstanceID: gameID,
		FromPlayerID:   req.FromPlayerID,
		ToPlayerID:     req.ToPlayerID,
		SignalType:     domain.SignalType(req.SignalType),
		SignalData:     req.SignalData,
	})
	if err != nil {
		writeError(w, h.logger, "game.SendSignal", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": msg.ID})
}

func (h *GameHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.gameAction(w, r)
	if !ok {
		return
	}
	playerID, ok := intQuery(r, "playerId")
	if !ok || playerID < 1 {
		badRequest(w, "playerId is required")
		return
	}

	signals, err := h.signalingService.GetSignals(r.Context(), userID, gameID, playerID)
	if err != nil {
		writeError(w, h.logger, "game.GetSignals", err)
		return
	}
	writeJSON(w, http.StatusOK, SignalsResponse{Signals: signals})
}
