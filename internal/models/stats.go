package models

// TodoStats is an aggregate summary over one owner's full todo set,
// computed on demand. Both maps always carry every enum key, zero counts
// included, so their sums equal TotalTodos.
type TodoStats struct {
	TotalTodos      int
	CompletedTodos  int
	PendingTodos    int
	OverdueTodos    int
	TodosByPriority map[TodoPriority]int
	TodosByStatus   map[TodoStatus]int
}
