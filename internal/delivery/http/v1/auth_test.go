package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ndenisov/todoview/internal/models"
	"github.com/ndenisov/todoview/internal/services"
)

type stubAuthService struct {
	services.AuthService

	loginFn          func(ctx context.Context, params services.LoginParams) (*services.LoginResult, error)
	registerFn       func(ctx context.Context, params services.RegisterParams) (*models.User, *services.LoginResult, error)
	getUserFn        func(ctx context.Context, userID string) (*models.User, error)
	updateProfileFn  func(ctx context.Context, params services.UpdateProfileParams) (*models.User, error)
	changePasswordFn func(ctx context.Context, userID, currentPassword, newPassword string) error
	parseTokenFn     func(token string) (*jwt.RegisteredClaims, error)
}

func (s *stubAuthService) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	return s.parseTokenFn(token)
}

type stubSessionService struct {
	getSessionFn func(ctx context.Context, sessionID string) (*models.Session, error)
}

func (s *stubSessionService) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.getSessionFn(ctx, sessionID)
}

func (s *stubAuthService) Login(ctx context.Context, params services.LoginParams) (*services.LoginResult, error) {
	return s.loginFn(ctx, params)
}

func (s *stubAuthService) Register(ctx context.Context, params services.RegisterParams) (*models.User, *services.LoginResult, error) {
	return s.registerFn(ctx, params)
}

func (s *stubAuthService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.getUserFn(ctx, userID)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, params services.UpdateProfileParams) (*models.User, error) {
	return s.updateProfileFn(ctx, params)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return s.changePasswordFn(ctx, userID, currentPassword, newPassword)
}

func newAuthTestRouter(auth services.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := New(zerolog.Nop(), auth, nil, nil, services.TodoLimits{})

	router := gin.New()
	group := router.Group("/api/v1/auth")
	group.POST("/login/json", handler.HandleLoginJSON)
	group.POST("/register", handler.HandleRegister)

	authed := group.Group("", func(c *gin.Context) {
		c.Set(userIDCtxKey, "user-1")
	})
	authed.GET("/me", handler.HandleGetMe)
	authed.PUT("/me", handler.HandleUpdateMe)
	authed.POST("/change-password", handler.HandleChangePassword)
	return router
}

func performJSONRequest(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, request)
	return recorder
}

func testUser() *models.User {
	now := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)
	return &models.User{
		ID:        "user-1",
		Username:  "alice",
		Email:     "alice@example.com",
		FullName:  "Alice Example",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHandleGetMe(t *testing.T) {
	stub := &stubAuthService{
		getUserFn: func(_ context.Context, userID string) (*models.User, error) {
			require.Equal(t, "user-1", userID)
			return testUser(), nil
		},
	}
	router := newAuthTestRouter(stub)

	recorder := performJSONRequest(router, http.MethodGet, "/api/v1/auth/me", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		IsActive bool   `json:"is_active"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "user-1", body.ID)
	require.Equal(t, "alice", body.Username)
	require.Equal(t, "Alice Example", body.FullName)
	require.True(t, body.IsActive)
}

func TestHandleUpdateMe(t *testing.T) {
	t.Run("forwards the patch", func(t *testing.T) {
		stub := &stubAuthService{
			updateProfileFn: func(_ context.Context, params services.UpdateProfileParams) (*models.User, error) {
				require.Equal(t, "user-1", params.UserID)
				require.NotNil(t, params.Email)
				require.Equal(t, "new@example.com", *params.Email)
				require.Nil(t, params.FullName)

				user := testUser()
				user.Email = *params.Email
				return user, nil
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPut, "/api/v1/auth/me",
			`{"email":"new@example.com"}`)
		require.Equal(t, http.StatusOK, recorder.Code)
		require.Contains(t, recorder.Body.String(), "new@example.com")
	})

	t.Run("invalid email is rejected by binding", func(t *testing.T) {
		stub := &stubAuthService{
			updateProfileFn: func(context.Context, services.UpdateProfileParams) (*models.User, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPut, "/api/v1/auth/me",
			`{"email":"not-an-email"}`)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("taken email maps to 409", func(t *testing.T) {
		stub := &stubAuthService{
			updateProfileFn: func(context.Context, services.UpdateProfileParams) (*models.User, error) {
				return nil, services.ErrUserAlreadyExists
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPut, "/api/v1/auth/me",
			`{"email":"taken@example.com"}`)
		require.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestHandleChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stub := &stubAuthService{
			changePasswordFn: func(_ context.Context, userID, currentPassword, newPassword string) error {
				require.Equal(t, "user-1", userID)
				require.Equal(t, "password-one", currentPassword)
				require.Equal(t, "password-two", newPassword)
				return nil
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPost, "/api/v1/auth/change-password",
			`{"current_password":"password-one","new_password":"password-two"}`)
		require.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("wrong current password maps to 401", func(t *testing.T) {
		stub := &stubAuthService{
			changePasswordFn: func(context.Context, string, string, string) error {
				return services.ErrUserPasswordMismatch
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPost, "/api/v1/auth/change-password",
			`{"current_password":"wrong-one","new_password":"password-two"}`)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestHandleLoginJSON(t *testing.T) {
	t.Run("sets the token cookies", func(t *testing.T) {
		stub := &stubAuthService{
			loginFn: func(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
				require.Equal(t, "alice", params.Username)
				now := time.Now()
				return &services.LoginResult{
					UserID:                "user-1",
					SessionID:             "session-1",
					AccessToken:           "access-token",
					AccessTokenExpiresAt:  now.Add(15 * time.Minute),
					RefreshToken:          "refresh-token",
					RefreshTokenExpiresAt: now.Add(720 * time.Hour),
				}, nil
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPost, "/api/v1/auth/login/json",
			`{"username":"alice","password":"password-one"}`)
		require.Equal(t, http.StatusOK, recorder.Code)

		cookies := recorder.Result().Cookies()
		names := make([]string, len(cookies))
		for i, cookie := range cookies {
			names[i] = cookie.Name
		}
		require.Contains(t, names, accessTokenCookie)
		require.Contains(t, names, refreshTokenCookie)
	})

	t.Run("unknown user maps to 401", func(t *testing.T) {
		stub := &stubAuthService{
			loginFn: func(context.Context, services.LoginParams) (*services.LoginResult, error) {
				return nil, services.ErrUserNotFound
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPost, "/api/v1/auth/login/json",
			`{"username":"nobody","password":"password-one"}`)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// httptest requests come from 192.0.2.1 with an empty user agent;
	// the stored fingerprint has to match what the middleware derives.
	const fingerprint = `{"client_ip":"192.0.2.1","user_agent":""}`

	newMiddlewareRouter := func(user *models.User) *gin.Engine {
		auth := &stubAuthService{
			parseTokenFn: func(token string) (*jwt.RegisteredClaims, error) {
				require.Equal(t, "access-token", token)
				return &jwt.RegisteredClaims{Subject: "session-1"}, nil
			},
			getUserFn: func(_ context.Context, userID string) (*models.User, error) {
				require.Equal(t, user.ID, userID)
				return user, nil
			},
		}
		sessions := &stubSessionService{
			getSessionFn: func(_ context.Context, sessionID string) (*models.Session, error) {
				require.Equal(t, "session-1", sessionID)
				return &models.Session{
					ID:          sessionID,
					UserID:      user.ID,
					Fingerprint: fingerprint,
					ExpiresAt:   time.Now().Add(time.Hour),
				}, nil
			},
		}

		handler := New(zerolog.Nop(), auth, sessions, nil, services.TodoLimits{})
		router := gin.New()
		router.GET("/protected", handler.HandleAuthMiddleware, func(c *gin.Context) {
			userID, _ := getStringFromContext(c, userIDCtxKey)
			c.JSON(http.StatusOK, gin.H{"user_id": userID})
		})
		return router
	}

	performAuthed := func(router *gin.Engine) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/protected", nil)
		request.Header.Set("Authorization", "Bearer access-token")
		router.ServeHTTP(recorder, request)
		return recorder
	}

	t.Run("active user passes", func(t *testing.T) {
		router := newMiddlewareRouter(testUser())

		recorder := performAuthed(router)
		require.Equal(t, http.StatusOK, recorder.Code)
		require.Contains(t, recorder.Body.String(), `"user_id":"user-1"`)
	})

	t.Run("inactive user is rejected", func(t *testing.T) {
		user := testUser()
		user.IsActive = false
		router := newMiddlewareRouter(user)

		recorder := performAuthed(router)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestHandleRegister(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		stub := &stubAuthService{
			registerFn: func(_ context.Context, params services.RegisterParams) (*models.User, *services.LoginResult, error) {
				require.Equal(t, "alice", params.Username)
				require.Equal(t, "Alice Example", params.FullName)
				now := time.Now()
				return testUser(), &services.LoginResult{
					AccessTokenExpiresAt:  now.Add(15 * time.Minute),
					RefreshTokenExpiresAt: now.Add(720 * time.Hour),
				}, nil
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPost, "/api/v1/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"password-one","full_name":"Alice Example"}`)
		require.Equal(t, http.StatusCreated, recorder.Code)
		require.Contains(t, recorder.Body.String(), `"username":"alice"`)
	})

	t.Run("taken username maps to 409", func(t *testing.T) {
		stub := &stubAuthService{
			registerFn: func(context.Context, services.RegisterParams) (*models.User, *services.LoginResult, error) {
				return nil, nil, services.ErrUserAlreadyExists
			},
		}
		router := newAuthTestRouter(stub)

		recorder := performJSONRequest(router, http.MethodPost, "/api/v1/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"password-one"}`)
		require.Equal(t, http.StatusConflict, recorder.Code)
	})
}
