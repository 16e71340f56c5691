package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stuffmd/backend/internal/adapter"
	"github.com/stuffmd/backend/internal/auth"
	"github.com/stuffmd/backend/internal/frontmatter"
	"github.com/stuffmd/backend/internal/notes"
	xoauth2 "golang.org/x/oauth2"
	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// AuthHandler handles authentication requests.
type AuthHandler struct {
	authService     *auth.AuthService
	storageProvider adapter.StorageProvider
	jwtSecret       string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *auth.AuthService, sp adapter.StorageProvider, jwtSecret string) *AuthHandler {
	return &AuthHandler{authService: s, storageProvider: sp, jwtSecret: jwtSecret}
}

// Login initiates the Google OAuth2 flow.
func (h *AuthHandler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// TODO: Generate a secure random state and store it in a cookie to prevent CSRF
	state := "random-state"
	url := h.authService.GenerateAuthURL(state)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": url,
		},
	}, nil
}

// Callback handles the OAuth2 callback from Google.
func (h *AuthHandler) Callback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	code := req.QueryStringParameters["code"]
	if code == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing code"}, nil
	}

	token, err := h.authService.ExchangeCode(ctx, code)
	if err != nil {
		fmt.Printf("ExchangeCode error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to exchange code"}, nil
	}

	// Get User Info from Google
	oauth2Service, err := oauth2.NewService(ctx, option.WithTokenSource(h.authService.Config().TokenSource(ctx, token)))
	if err != nil {
		fmt.Printf("NewService error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to create oauth2 service"}, nil
	}

	userinfo, err := oauth2Service.Userinfo.Get().Do()
	if err != nil {
		fmt.Printf("Userinfo error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to get user info"}, nil
	}

	// We use userinfo.Id (Google Subject ID) as UserID.
	userID := userinfo.Id

	err = h.authService.SaveToken(ctx, userID, token)
	if err != nil {
		fmt.Printf("SaveToken error: %v\n", err)
		// Proceed even if saving refresh token failed (e.g. no refresh token returned on subsequent login)
	}

	// Generate JWT Session Token
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": userinfo.Email,
		"name":  userinfo.Name,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := jwtToken.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to sign token"}, nil
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	// Determine Cookie Settings based on Environment
	sameSite := "Lax"
	if os.Getenv("DEV_MODE") != "true" {
		// Frontend (CloudFront) and API (Gateway) live on different origins in
		// production, so cross-site cookies need None.
		sameSite = "None"
	}

	cookie := fmt.Sprintf("session_token=%s; HttpOnly; Path=/; Max-Age=86400; SameSite=%s; Secure", signedToken, sameSite)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": fmt.Sprintf("%s/?success=true", frontendURL),
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {cookie},
		},
	}, nil
}

// GetUser returns the current user's profile.
func (h *AuthHandler) GetUser(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: "Unauthorized"}, nil
	}

	token, err := h.authService.GetUserToken(ctx, userID)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to get user profile"}, nil
	}

	profile := map[string]interface{}{
		"id":                   token.UserID,
		"onboarding_dismissed": token.OnboardingDismissed,
	}

	body, _ := json.Marshal(profile)
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

// UpdateUser updates user settings.
func (h *AuthHandler) UpdateUser(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: "Unauthorized"}, nil
	}

	var body struct {
		OnboardingDismissed *bool `json:"onboarding_dismissed"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid request body"}, nil
	}

	if body.OnboardingDismissed != nil {
		if err := h.authService.UpdateOnboardingDismissed(ctx, userID, *body.OnboardingDismissed); err != nil {
			fmt.Printf("UpdateOnboardingDismissed error: %v\n", err)
			return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to update user settings"}, nil
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       `{"success":true}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

// DemoLogin issues a temporary JWT without Google OAuth and seeds a welcome
// note, for trying the app against the memory backend.
func (h *AuthHandler) DemoLogin(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID := fmt.Sprintf("demo-user-%s", uuid.New().String())
	email := "demo@stuffmd.local"

	storage, err := h.storageProvider.GetAdapter(ctx, userID)
	if err != nil {
		fmt.Printf("DemoLogin GetAdapter error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to get storage adapter"}, nil
	}

	rootID, err := storage.EnsureRootFolder(ctx, notes.DefaultRootFolderName)
	if err != nil {
		fmt.Printf("DemoLogin EnsureRootFolder error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to create app folder"}, nil
	}

	dummyToken := &xoauth2.Token{
		AccessToken:  "dummy-access-token",
		RefreshToken: "dummy-refresh-token",
		Expiry:       time.Now().Add(1 * time.Hour),
		TokenType:    "Bearer",
	}
	if err := h.authService.SaveToken(ctx, userID, dummyToken); err != nil {
		fmt.Printf("DemoLogin SaveToken error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to save demo user token"}, nil
	}

	// Seed a welcome note, filed the same way real captures are.
	folder, err := adapter.EnsureFolderPath(ctx, storage, rootID, []string{"Getting Started"}, nil)
	if err != nil {
		fmt.Printf("DemoLogin EnsureFolderPath error: %v\n", err)
	} else {
		content := "Welcome! Type anything in the input box and it will be " +
			"classified, titled and filed for you. Paste a URL to save it as a link."
		blob := frontmatter.Encode(frontmatter.Metadata{
			Tags:    []string{"welcome"},
			Date:    time.Now().UTC().Format(time.RFC3339),
			Summary: "A short tour of how notes are captured and filed.",
			Title:   "Welcome to STUFF.md",
		}, content)
		name := notes.Filename(content, time.Now())
		if _, err := storage.CreateFile(ctx, name, []byte(blob), folder); err != nil {
			fmt.Printf("DemoLogin CreateFile error: %v\n", err)
			// Continue; the demo session works without the seed note
		}
	}

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"name":  "Demo User",
		"exp":   time.Now().Add(1 * time.Hour).Unix(), // 1 hour session for demo
	}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := jwtToken.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to sign token"}, nil
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	cookie := fmt.Sprintf("session_token=%s; HttpOnly; Path=/; Max-Age=86400; SameSite=Lax; Secure", signedToken)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": fmt.Sprintf("%s/?token=%s", frontendURL, signedToken),
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {cookie},
		},
	}, nil
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// SameSite should match Login/DemoLogin
	sameSite := "Lax"
	if os.Getenv("DEV_MODE") != "true" {
		sameSite = "None"
	}

	cookie := fmt.Sprintf("session_token=; HttpOnly; Path=/; Max-Age=0; SameSite=%s; Secure", sameSite)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       `{"success":true}`,
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {cookie},
		},
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}
