package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Cart struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
	IsPublic   bool   `json:"isPublic"`
}

type Lobby struct {
	ID         string        `json:"id"`
	HostID     string        `json:"hostId"`
	CartID     string        `json:"cartId"`
	Name       string        `json:"name"`
	MaxPlayers int           `json:"maxPlayers"`
	Status     string        `json:"status"`
	Players    []LobbyPlayer `json:"players"`
}

type LobbyPlayer struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsReady  bool   `json:"isReady"`
}

type LobbyPage struct {
	Lobbies       []Lobby `json:"lobbies"`
	NextPageToken string  `json:"nextPageToken"`
}

type GamePlayer struct {
	UserID   string `json:"userId"`
	PlayerID int    `json:"playerId"`
	IsHost   bool   `json:"isHost"`
}

type Game struct {
	ID      string       `json:"id"`
	Status  string       `json:"status"`
	Players []GamePlayer `json:"players"`
}

type StartResponse struct {
	GameInstanceID string `json:"gameInstanceId"`
	Game           Game   `json:"game"`
}

type Signal struct {
	FromPlayerID int             `json:"fromPlayerId"`
	SignalType   string          `json:"signalType"`
	SignalData   json.RawMessage `json:"signalData"`
}

type ResultPlayer struct {
	PlayerID  int   `json:"playerId"`
	Score     int64 `json:"score"`
	Placement int   `json:"placement"`
}

type MatchResult struct {
	ID         string `json:"id"`
	DurationMs int64  `json:"duration"`
}

type LeaderboardEntry struct {
	Username  string `json:"username"`
	Score     int64  `json:"score"`
	Placement int    `json:"placement"`
}

type Stats struct {
	LobbiesCreated int64 `json:"lobbiesCreated"`
	MatchesPlayed  int64 `json:"matchesPlayed"`
}

// apiError carries the backend's error envelope.
type apiError struct {
	Status  int
	Kind    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
}

// RegisterUser creates a new account with a unique suffixed username.
func (c *APIClient) RegisterUser(baseName string) (*User, string, error) {
	username := fmt.Sprintf("%s_%d", baseName, time.Now().UnixNano()%100000)

	var auth AuthResponse
	body := map[string]string{"username": username, "password": "simulator123"}
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusOK, &auth); err != nil {
		return nil, "", fmt.Errorf("register %s: %w", username, err)
	}
	return &auth.User, auth.AccessToken, nil
}

func (c *APIClient) CreateCart(token, name string, maxPlayers int) (*Cart, error) {
	body := map[string]interface{}{
		"name":       name,
		"isPublic":   true,
		"maxPlayers": maxPlayers,
		"code":       "-- simulator cart\nfunction _update() end\nfunction _draw() cls() end\n",
		"manifest":   map[string]interface{}{"version": 1, "source": "simulator"},
	}
	var cart Cart
	if err := c.do(http.MethodPost, "/carts", body, token, http.StatusCreated, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *APIClient) CreateLobby(token, cartID, name string, maxPlayers int) (*Lobby, error) {
	body := map[string]interface{}{"cartId": cartID, "name": name, "maxPlayers": maxPlayers}
	var lobby Lobby
	if err := c.do(http.MethodPost, "/lobbies", body, token, http.StatusCreated, &lobby); err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (c *APIClient) GetLobby(token, lobbyID string) (*Lobby, error) {
	var lobby Lobby
	if err := c.do(http.MethodGet, "/lobbies/"+lobbyID, nil, token, http.StatusOK, &lobby); err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (c *APIClient) ListLobbies(token, pageToken string) (*LobbyPage, error) {
	path := "/lobbies?status=waiting"
	if pageToken != "" {
		path += "&pageToken=" + pageToken
	}
	var page LobbyPage
	if err := c.do(http.MethodGet, path, nil, token, http.StatusOK, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *APIClient) JoinLobby(token, lobbyID string) error {
	return c.do(http.MethodPost, "/lobbies/"+lobbyID+"/join", nil, token, http.StatusOK, nil)
}

func (c *APIClient) SetReady(token, lobbyID string, ready bool) error {
	return c.do(http.MethodPost, "/lobbies/"+lobbyID+"/ready", map[string]bool{"ready": ready}, token, http.StatusOK, nil)
}

func (c *APIClient) StartGame(token, lobbyID string) (*StartResponse, error) {
	var start StartResponse
	if err := c.do(http.MethodPost, "/lobbies/"+lobbyID+"/start", nil, token, http.StatusOK, &start); err != nil {
		return nil, err
	}
	return &start, nil
}

func (c *APIClient) SendSignal(token, gameID string, from, to int, signalType string, data interface{}) error {
	body := map[string]interface{}{
		"fromPlayerId": from,
		"toPlayerId":   to,
		"signalType":   signalType,
		"signalData":   data,
	}
	return c.do(http.MethodPost, "/games/"+gameID+"/signals", body, token, http.StatusCreated, nil)
}

func (c *APIClient) GetSignals(token, gameID string, playerID int) ([]Signal, error) {
	var resp struct {
		Signals []Signal `json:"signals"`
	}
	path := fmt.Sprintf("/games/%s/signals?playerId=%d", gameID, playerID)
	if err := c.do(http.MethodGet, path, nil, token, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Signals, nil
}

func (c *APIClient) ReportRunning(token, gameID string) error {
	return c.do(http.MethodPost, "/games/"+gameID+"/running", nil, token, http.StatusOK, nil)
}

func (c *APIClient) SaveResult(token, gameID, cartID string, durationMs int64, players []ResultPlayer) (*MatchResult, error) {
	body := map[string]interface{}{
		"cartId":     cartID,
		"durationMs": durationMs,
		"players":    players,
	}
	var result MatchResult
	if err := c.do(http.MethodPost, "/games/"+gameID+"/result", body, token, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Leaderboard(token, cartID string) ([]LeaderboardEntry, error) {
	var resp struct {
		Entries []LeaderboardEntry `json:"entries"`
	}
	if err := c.do(http.MethodGet, "/carts/"+cartID+"/leaderboard?limit=10", nil, token, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *APIClient) Stats() (*Stats, error) {
	var stats Stats
	if err := c.do(http.MethodGet, "/stats", nil, "", http.StatusOK, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// do sends a JSON request and decodes the response into out when the
// status matches want.
func (c *APIClient) do(method, path string, body interface{}, token string, want int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var envelope struct {
			Error struct {
				Kind    string `json:"kind"`
				Message string `json:"message"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Kind == "" {
			return &apiError{Status: resp.StatusCode, Kind: "unknown", Message: string(raw)}
		}
		return &apiError{Status: resp.StatusCode, Kind: envelope.Error.Kind, Message: envelope.Error.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
