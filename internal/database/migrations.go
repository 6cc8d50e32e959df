package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Project indexes for the status and owner listings
		{"projects", "idx_projects_owner_id", "owner_id"},
		{"projects", "idx_projects_status", "status"},
		{"projects", "idx_projects_case_id", "case_id"},

		// Task indexes for the coverage and split queries
		{"tasks", "idx_tasks_project_id", "project_id"},
		{"tasks", "idx_tasks_status", "status"},
		{"tasks", "idx_tasks_resolves_by_itself", "resolves_by_itself"},

		// Association indexes for the negotiation lookups
		{"task_org_associations", "idx_task_org_associations_task_id", "task_id"},
		{"task_org_associations", "idx_task_org_associations_org_id", "organization_id"},
		{"task_org_associations", "idx_task_org_associations_status", "status"},

		// Observation lookups per project
		{"observations", "idx_observations_project_id", "project_id"},

		// Organization members
		{"organization_members", "idx_org_members_organization_id", "organization_id"},
		{"organization_members", "idx_org_members_user_id", "user_id"},
	}

	for _, idx := range indexes {
		// Check if index already exists
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
