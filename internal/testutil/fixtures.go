package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.username = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate registers the user via the API and returns the user and access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username": b.username,
		"password": b.password,
	})

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:       userID,
		Username: authResp.User.Username,
	}

	return user, authResp.AccessToken
}

// CartBuilder creates test carts with a builder pattern
type CartBuilder struct {
	owner      *domain.User
	name       string
	isPublic   bool
	isExample  bool
	maxPlayers int
	code       string
}

// NewCartBuilder creates a private single-player cart builder
func NewCartBuilder() *CartBuilder {
	return &CartBuilder{
		name:       fmt.Sprintf("cart_%s", uuid.New().String()[:8]),
		maxPlayers: 1,
		code:       "function _update() end",
	}
}

// WithOwner sets the owning user
func (b *CartBuilder) WithOwner(user *domain.User) *CartBuilder {
	b.owner = user
	return b
}

func (b *CartBuilder) WithName(name string) *CartBuilder {
	b.name = name
	return b
}

func (b *CartBuilder) Public() *CartBuilder {
	b.isPublic = true
	return b
}

// Example marks the cart as a system example with no owner
func (b *CartBuilder) Example() *CartBuilder {
	b.isExample = true
	b.owner = nil
	return b
}

func (b *CartBuilder) WithMaxPlayers(n int) *CartBuilder {
	b.maxPlayers = n
	return b
}

// Build inserts the cart directly, bypassing the service checks
func (b *CartBuilder) Build(t *testing.T, db *gorm.DB) *domain.Cart {
	t.Helper()

	cart := &domain.Cart{
		ID:         uuid.New(),
		Name:       b.name,
		IsPublic:   b.isPublic,
		IsExample:  b.isExample,
		MaxPlayers: b.maxPlayers,
		Code:       b.code,
		Manifest:   datatypes.JSON(`{"version":1}`),
	}
	if b.owner != nil {
		ownerID := b.owner.ID
		cart.OwnerID = &ownerID
	}

	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}

	return cart
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// Do sends an authenticated JSON request and returns the response.
// The caller closes the body.
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateAuthenticatedRequest(t, method, ts.APIURL(path), body, token))
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}
