package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndenisov/todoview/internal/models"
	"github.com/ndenisov/todoview/internal/services"
)

type todoResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	IsCompleted bool       `json:"is_completed"`
	OwnerID     string     `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newTodoResponse(todo *models.Todo) todoResponse {
	return todoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Status:      todo.Status.String(),
		Priority:    todo.Priority.String(),
		DueDate:     todo.DueDate,
		IsCompleted: todo.IsCompleted(),
		OwnerID:     todo.OwnerID,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

func newTodoResponses(todos []models.Todo) []todoResponse {
	responses := make([]todoResponse, len(todos))
	for i := range todos {
		responses[i] = newTodoResponse(&todos[i])
	}
	return responses
}

type listTodosResponse struct {
	Todos   []todoResponse `json:"todos"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	HasNext bool           `json:"has_next"`
	HasPrev bool           `json:"has_prev"`
}

type todoStatsResponse struct {
	TotalTodos      int            `json:"total_todos"`
	CompletedTodos  int            `json:"completed_todos"`
	PendingTodos    int            `json:"pending_todos"`
	OverdueTodos    int            `json:"overdue_todos"`
	TodosByPriority map[string]int `json:"todos_by_priority"`
	TodosByStatus   map[string]int `json:"todos_by_status"`
}

func newTodoStatsResponse(stats *models.TodoStats) todoStatsResponse {
	response := todoStatsResponse{
		TotalTodos:      stats.TotalTodos,
		CompletedTodos:  stats.CompletedTodos,
		PendingTodos:    stats.PendingTodos,
		OverdueTodos:    stats.OverdueTodos,
		TodosByPriority: make(map[string]int, len(stats.TodosByPriority)),
		TodosByStatus:   make(map[string]int, len(stats.TodosByStatus)),
	}
	for priority, count := range stats.TodosByPriority {
		response.TodosByPriority[priority.String()] = count
	}
	for status, count := range stats.TodosByStatus {
		response.TodosByStatus[status.String()] = count
	}
	return response
}

func (h *handlerImpl) abortTodoError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		abort(c, newBadRequestError(validationErr.Error()))
	case errors.Is(err, services.ErrTodoNotFound):
		abort(c, newNotFoundError(services.ErrTodoNotFound.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}

type createTodoRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (h *handlerImpl) HandleCreateTodo(c *gin.Context) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createTodoRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.CreateTodoParams{
		OwnerID: ownerID,
		Title:   req.Title,
		DueDate: req.DueDate,
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.Priority != nil {
		priority, err := models.ParseTodoPriority(*req.Priority)
		if err != nil {
			abort(c, newBadRequestError(err.Error()))
			return
		}
		params.Priority = &priority
	}

	todo, err := h.todos.CreateTodo(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create todo")
		h.abortTodoError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTodoResponse(todo))
}

func (h *handlerImpl) HandleGetTodos(c *gin.Context) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	filter, apiErr := h.parseTodoFilter(c)
	if apiErr != nil {
		abort(c, *apiErr)
		return
	}

	page, err := h.todos.ListTodos(c, ownerID, *filter)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list todos")
		h.abortTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, listTodosResponse{
		Todos:   newTodoResponses(page.Todos),
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		HasNext: page.HasNext,
		HasPrev: page.HasPrev,
	})
}

func (h *handlerImpl) parseTodoFilter(c *gin.Context) (*services.TodoFilter, *apiError) {
	filter := services.TodoFilter{
		Search:  c.Query("search"),
		Page:    1,
		PerPage: h.limits.DefaultPageSize,
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseTodoStatus(raw)
		if err != nil {
			apiErr := newBadRequestError(err.Error())
			return nil, &apiErr
		}
		filter.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority, err := models.ParseTodoPriority(raw)
		if err != nil {
			apiErr := newBadRequestError(err.Error())
			return nil, &apiErr
		}
		filter.Priority = &priority
	}
	if raw := c.Query("is_completed"); raw != "" {
		isCompleted, err := strconv.ParseBool(raw)
		if err != nil {
			apiErr := newBadRequestError("is_completed: must be a boolean")
			return nil, &apiErr
		}
		filter.IsCompleted = &isCompleted
	}
	if raw := c.Query("due_before"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			apiErr := newBadRequestError("due_before: " + err.Error())
			return nil, &apiErr
		}
		filter.DueBefore = &t
	}
	if raw := c.Query("due_after"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			apiErr := newBadRequestError("due_after: " + err.Error())
			return nil, &apiErr
		}
		filter.DueAfter = &t
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			apiErr := newBadRequestError("page: must be an integer")
			return nil, &apiErr
		}
		filter.Page = page
	}
	if raw := c.Query("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			apiErr := newBadRequestError("per_page: must be an integer")
			return nil, &apiErr
		}
		filter.PerPage = perPage
	}
	return &filter, nil
}

// parseTimeParam accepts RFC3339 ("2026-02-19T15:04:05Z") or a bare date
// ("2026-02-19", start of that day in UTC).
func parseTimeParam(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.DateOnly, raw)
	if err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, errors.New("use RFC3339 or YYYY-MM-DD")
}

func (h *handlerImpl) HandleGetTodoByID(c *gin.Context) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	todoID := c.Param("id")
	if todoID == "" {
		abort(c, newBadRequestError("no todo id provided"))
		return
	}

	todo, err := h.todos.GetTodoByID(c, ownerID, todoID)
	if err != nil {
		h.abortTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTodoResponse(todo))
}

type updateTodoRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsCompleted *bool      `json:"is_completed,omitempty"`
}

func (h *handlerImpl) HandleUpdateTodo(c *gin.Context) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	todoID := c.Param("id")
	if todoID == "" {
		abort(c, newBadRequestError("no todo id provided"))
		return
	}

	var req updateTodoRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.UpdateTodoParams{
		OwnerID:     ownerID,
		TodoID:      todoID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		IsCompleted: req.IsCompleted,
	}
	if req.Status != nil {
		status, err := models.ParseTodoStatus(*req.Status)
		if err != nil {
			abort(c, newBadRequestError(err.Error()))
			return
		}
		params.Status = &status
	}
	if req.Priority != nil {
		priority, err := models.ParseTodoPriority(*req.Priority)
		if err != nil {
			abort(c, newBadRequestError(err.Error()))
			return
		}
		params.Priority = &priority
	}

	todo, err := h.todos.UpdateTodo(c, params)
	if err != nil {
		h.abortTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTodoResponse(todo))
}

func (h *handlerImpl) HandleDeleteTodo(c *gin.Context) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	todoID := c.Param("id")
	if todoID == "" {
		abort(c, newBadRequestError("no todo id provided"))
		return
	}

	err := h.todos.DeleteTodo(c, ownerID, todoID)
	if err != nil {
		h.abortTodoError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleGetOverdueTodos(c *gin.Context) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	todos, err := h.todos.GetOverdueTodos(c, ownerID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get overdue todos")
		h.abortTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTodoResponses(todos))
}

func (h *handlerImpl) HandleGetTodosDueSoon(c *gin.Context) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	hours := h.limits.DefaultDueSoonHours
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abort(c, newBadRequestError("hours: must be an integer"))
			return
		}
		hours = parsed
	}

	todos, err := h.todos.GetTodosDueSoon(c, ownerID, hours)
	if err != nil {
		h.abortTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTodoResponses(todos))
}

func (h *handlerImpl) HandleGetTodoStats(c *gin.Context) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	stats, err := h.todos.GetTodoStats(c, ownerID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get todo stats")
		h.abortTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTodoStatsResponse(stats))
}

func (h *handlerImpl) HandleCompleteTodo(c *gin.Context) {
	h.handleSetCompletion(c, true)
}

func (h *handlerImpl) HandlePendingTodo(c *gin.Context) {
	h.handleSetCompletion(c, false)
}

func (h *handlerImpl) handleSetCompletion(c *gin.Context, completed bool) {
	ownerID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	todoID := c.Param("id")
	if todoID == "" {
		abort(c, newBadRequestError("no todo id provided"))
		return
	}

	todo, err := h.todos.SetTodoCompletion(c, ownerID, todoID, completed)
	if err != nil {
		h.abortTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTodoResponse(todo))
}
