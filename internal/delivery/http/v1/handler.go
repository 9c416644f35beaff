package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ndenisov/todoview/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleLoginJSON(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleGetMe(c *gin.Context)
	HandleUpdateMe(c *gin.Context)
	HandleChangePassword(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTodo(c *gin.Context)
	HandleGetTodos(c *gin.Context)
	HandleGetTodoByID(c *gin.Context)
	HandleUpdateTodo(c *gin.Context)
	HandleDeleteTodo(c *gin.Context)
	HandleGetOverdueTodos(c *gin.Context)
	HandleGetTodosDueSoon(c *gin.Context)
	HandleGetTodoStats(c *gin.Context)
	HandleCompleteTodo(c *gin.Context)
	HandlePendingTodo(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	auth     services.AuthService
	sessions services.SessionService
	todos    services.TodoService
	limits   services.TodoLimits
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	todoService services.TodoService,
	limits services.TodoLimits,
) Handler {
	return &handlerImpl{
		logger:   logger,
		auth:     authService,
		sessions: sessionService,
		todos:    todoService,
		limits:   limits,
	}
}
