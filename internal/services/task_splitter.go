package services

import "github.com/reliefhub/reliefhub/internal/models"

// SplitTasks partitions proposed tasks into those the owner resolves by
// itself and those needing external collaboration. Pure and deterministic:
// every task lands in exactly one partition and relative order is preserved.
func SplitTasks(tasks []models.Task) (selfResolved, needsCollaboration []models.Task) {
	for _, task := range tasks {
		if task.ResolvesByItself {
			selfResolved = append(selfResolved, task)
		} else {
			needsCollaboration = append(needsCollaboration, task)
		}
	}
	return selfResolved, needsCollaboration
}
