package store

import (
	"context"
	"fmt"

	"github.com/riverscapes/qris/internal/common"
	"github.com/riverscapes/qris/internal/task"
	"github.com/riverscapes/qris/pkg/types"
)

// LoadTask opens a project store end to end: validate the file, apply
// pending migrations, load the object graph, and rebuild the entity
// views. After a successful run the loaded graph is on Project.
type LoadTask struct {
	Store *Store

	Project *types.Project
}

// Description implements task.Task.
func (t *LoadTask) Description() string {
	return fmt.Sprintf("Open project %s", t.Store.Path())
}

// Run implements task.Task.
func (t *LoadTask) Run(ctx context.Context, progress *task.Progress) error {
	log := common.Logger()

	progress.Set(0, "validating")
	if err := t.Store.Validate(ctx); err != nil {
		return err
	}

	progress.Set(33, "migrating")
	applied, err := t.Store.ApplyMigrations(ctx)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		log.Info("store: migrated on open", "applied", len(applied))
	}

	progress.Set(66, "loading")
	project, err := t.Store.LoadProject(ctx)
	if err != nil {
		return err
	}

	progress.Set(90, "refreshing views")
	refreshed, err := t.Store.RefreshSpatialViews(ctx, project)
	if err != nil {
		return err
	}
	log.Debug("store: entity views refreshed", "count", refreshed)

	t.Project = project
	progress.Set(100, "ready")
	return nil
}
