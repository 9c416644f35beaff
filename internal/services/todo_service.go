package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ndenisov/todoview/internal/cache"
	"github.com/ndenisov/todoview/internal/models"
	"github.com/ndenisov/todoview/internal/storage"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

type todoServiceImpl struct {
	logger zerolog.Logger
	store  storage.TodoStore
	cache  *cache.TodoCache
	limits TodoLimits
	sf     singleflight.Group
}

// NewTodoService creates a TodoService over the given store. If c is nil,
// caching is disabled.
func NewTodoService(
	logger zerolog.Logger,
	store storage.TodoStore,
	c *cache.TodoCache,
	limits TodoLimits,
) TodoService {
	return &todoServiceImpl{
		logger: logger,
		store:  store,
		cache:  c,
		limits: limits,
	}
}

func (s *todoServiceImpl) CreateTodo(ctx context.Context, params CreateTodoParams) (*models.Todo, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, NewValidationError("title", "must not be empty")
	}
	if len(title) > maxTitleLen {
		return nil, NewValidationError("title", "too long")
	}
	if len(params.Description) > maxDescriptionLen {
		return nil, NewValidationError("description", "too long")
	}

	priority := models.PriorityMedium
	if params.Priority != nil {
		priority = *params.Priority
	}

	todoUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate todo uuid")
		return nil, err
	}

	now := time.Now().UTC()
	todo := &models.Todo{
		ID:          todoUUID.String(),
		OwnerID:     params.OwnerID,
		Title:       title,
		Description: params.Description,
		Status:      models.StatusPending,
		Priority:    priority,
		DueDate:     params.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.Create(ctx, todo)
	if err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, params.OwnerID)

	s.logger.Info().
		Str("todo_id", todo.ID).
		Str("owner_id", todo.OwnerID).
		Msg("created todo")
	return todo, nil
}

func (s *todoServiceImpl) GetTodoByID(ctx context.Context, ownerID, todoID string) (*models.Todo, error) {
	todo, err := s.store.GetByID(ctx, ownerID, todoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("todo_id", todoID).
				Str("owner_id", ownerID).
				Msg("todo not found")
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}

func (s *todoServiceImpl) UpdateTodo(ctx context.Context, params UpdateTodoParams) (*models.Todo, error) {
	todo, err := s.store.GetByID(ctx, params.OwnerID, params.TodoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return nil, NewValidationError("title", "must not be empty")
		}
		if len(title) > maxTitleLen {
			return nil, NewValidationError("title", "too long")
		}
		todo.Title = title
	}
	if params.Description != nil {
		if len(*params.Description) > maxDescriptionLen {
			return nil, NewValidationError("description", "too long")
		}
		todo.Description = *params.Description
	}
	if params.Status != nil {
		todo.Status = *params.Status
	}
	if params.Priority != nil {
		todo.Priority = *params.Priority
	}
	if params.DueDate != nil {
		todo.DueDate = params.DueDate
	}
	// Completion wins over a status set in the same request.
	if params.IsCompleted != nil {
		todo.SetCompleted(*params.IsCompleted)
	}
	todo.UpdatedAt = time.Now().UTC()

	todo, err = s.store.Update(ctx, todo)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	s.invalidateCache(ctx, params.OwnerID)

	s.logger.Info().
		Str("todo_id", todo.ID).
		Str("owner_id", todo.OwnerID).
		Msg("updated todo")
	return todo, nil
}

func (s *todoServiceImpl) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	err := s.store.Delete(ctx, ownerID, todoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("todo_id", todoID).
				Str("owner_id", ownerID).
				Msg("todo not found")
			return ErrTodoNotFound
		}
		return err
	}
	s.invalidateCache(ctx, ownerID)

	s.logger.Info().
		Str("todo_id", todoID).
		Str("owner_id", ownerID).
		Msg("deleted todo")
	return nil
}

func (s *todoServiceImpl) ListTodos(ctx context.Context, ownerID string, filter TodoFilter) (*TodoPage, error) {
	if filter.Page < 1 {
		return nil, NewValidationError("page", "must be at least 1")
	}
	if filter.PerPage < 1 || filter.PerPage > s.limits.MaxPageSize {
		return nil, NewValidationError("per_page", "out of allowed range")
	}

	todos, err := s.store.QueryAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Todo, 0, len(todos))
	for i := range todos {
		if matchesFilter(&todos[i], filter) {
			matched = append(matched, todos[i])
		}
	}

	// Newest first; id breaks created_at ties so pages stay stable.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.PerPage
	if start > total {
		start = total
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}

	return &TodoPage{
		Todos:   matched[start:end],
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		HasNext: filter.Page*filter.PerPage < total,
		HasPrev: filter.Page > 1,
	}, nil
}

func matchesFilter(t *models.Todo, f TodoFilter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.IsCompleted != nil && t.IsCompleted() != *f.IsCompleted {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.DueBefore != nil || f.DueAfter != nil {
		if t.DueDate == nil {
			return false
		}
		if f.DueBefore != nil && t.DueDate.After(*f.DueBefore) {
			return false
		}
		if f.DueAfter != nil && t.DueDate.Before(*f.DueAfter) {
			return false
		}
	}
	return true
}

func (s *todoServiceImpl) GetOverdueTodos(ctx context.Context, ownerID string) ([]models.Todo, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("overdue:"+ownerID, func() (any, error) {
			if list, err := s.cache.GetOverdue(ctx, ownerID); err == nil && list != nil {
				return list, nil
			}
			list, err := s.collectOverdue(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			if err := s.cache.SetOverdue(ctx, ownerID, list); err != nil {
				s.logger.Warn().
					Err(err).
					Msg("failed to cache overdue todos")
			}
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]models.Todo), nil
	}
	return s.collectOverdue(ctx, ownerID)
}

func (s *todoServiceImpl) collectOverdue(ctx context.Context, ownerID string) ([]models.Todo, error) {
	todos, err := s.store.QueryAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	overdue := make([]models.Todo, 0)
	for i := range todos {
		t := &todos[i]
		if t.DueDate != nil && t.DueDate.Before(now) && !t.IsCompleted() {
			overdue = append(overdue, todos[i])
		}
	}
	sortByDueDate(overdue)
	return overdue, nil
}

func (s *todoServiceImpl) GetTodosDueSoon(ctx context.Context, ownerID string, hours int) ([]models.Todo, error) {
	if hours < 1 || hours > s.limits.MaxDueSoonHours {
		return nil, NewValidationError("hours", "out of allowed range")
	}

	todos, err := s.store.QueryAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Half-open window: due exactly now is included, due exactly at the
	// horizon is not. The overdue set ends where this one begins.
	now := time.Now().UTC()
	horizon := now.Add(time.Duration(hours) * time.Hour)

	dueSoon := make([]models.Todo, 0)
	for i := range todos {
		t := &todos[i]
		if t.DueDate == nil || t.IsCompleted() {
			continue
		}
		if !t.DueDate.Before(now) && t.DueDate.Before(horizon) {
			dueSoon = append(dueSoon, todos[i])
		}
	}
	sortByDueDate(dueSoon)
	return dueSoon, nil
}

func sortByDueDate(todos []models.Todo) {
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].DueDate.Equal(*todos[j].DueDate) {
			return todos[i].DueDate.Before(*todos[j].DueDate)
		}
		return todos[i].ID < todos[j].ID
	})
}

func (s *todoServiceImpl) GetTodoStats(ctx context.Context, ownerID string) (*models.TodoStats, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("stats:"+ownerID, func() (any, error) {
			if stats, err := s.cache.GetStats(ctx, ownerID); err == nil && stats != nil {
				return stats, nil
			}
			stats, err := s.collectStats(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			if err := s.cache.SetStats(ctx, ownerID, stats); err != nil {
				s.logger.Warn().
					Err(err).
					Msg("failed to cache todo stats")
			}
			return stats, nil
		})
		if err != nil {
			return nil, err
		}
		return v.(*models.TodoStats), nil
	}
	return s.collectStats(ctx, ownerID)
}

func (s *todoServiceImpl) collectStats(ctx context.Context, ownerID string) (*models.TodoStats, error) {
	todos, err := s.store.QueryAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &models.TodoStats{
		TodosByPriority: make(map[models.TodoPriority]int, len(models.TodoPriorities)),
		TodosByStatus:   make(map[models.TodoStatus]int, len(models.TodoStatuses)),
	}
	for _, p := range models.TodoPriorities {
		stats.TodosByPriority[p] = 0
	}
	for _, st := range models.TodoStatuses {
		stats.TodosByStatus[st] = 0
	}

	now := time.Now().UTC()
	for i := range todos {
		t := &todos[i]
		stats.TotalTodos++
		if t.IsCompleted() {
			stats.CompletedTodos++
		}
		if t.Status == models.StatusPending {
			stats.PendingTodos++
		}
		if t.DueDate != nil && t.DueDate.Before(now) && !t.IsCompleted() {
			stats.OverdueTodos++
		}
		stats.TodosByPriority[t.Priority]++
		stats.TodosByStatus[t.Status]++
	}
	return stats, nil
}

func (s *todoServiceImpl) SetTodoCompletion(ctx context.Context, ownerID, todoID string, completed bool) (*models.Todo, error) {
	todo, err := s.store.SetCompletion(ctx, ownerID, todoID, completed, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("todo_id", todoID).
				Str("owner_id", ownerID).
				Msg("todo not found")
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	s.invalidateCache(ctx, ownerID)

	s.logger.Info().
		Str("todo_id", todoID).
		Str("owner_id", ownerID).
		Bool("completed", completed).
		Msg("set todo completion")
	return todo, nil
}

func (s *todoServiceImpl) invalidateCache(ctx context.Context, ownerID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, ownerID); err != nil {
			s.logger.Warn().
				Err(err).
				Str("owner_id", ownerID).
				Msg("failed to invalidate todo cache")
		}
	}
}
