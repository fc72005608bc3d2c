// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ruineo-Z/Spec2Test/services/api/observability"
	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
	"github.com/Ruineo-Z/Spec2Test/services/executor"
	"github.com/Ruineo-Z/Spec2Test/services/report"
	"github.com/Ruineo-Z/Spec2Test/services/storage"
)

type ExecuteRequest struct {
	// BaseURL overrides the suite's own base URL.
	BaseURL string `json:"base_url"`

	Concurrency    int `json:"concurrency"`
	TimeoutSeconds int `json:"timeout_seconds"`

	// Priority is one of "high", "normal", "low". Default: normal.
	Priority string `json:"priority"`

	// DelaySeconds postpones the run, e.g. to schedule against a
	// deployment that is still rolling out.
	DelaySeconds int `json:"delay_seconds"`

	// Sync runs the suite inside the request instead of queueing it.
	// Priority and delay are ignored in sync mode.
	Sync bool `json:"sync"`
}

// ExecuteSuite queues a suite run on the scheduler and returns the
// task ID. The run and its report are persisted when the task
// completes; poll GET /v1/tasks/:id to follow progress. With
// sync=true the run happens inline and the response is the finished
// run itself.
func ExecuteSuite(store *storage.Store, runner *executor.Runner, sched *executor.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ExecuteRequest
		if c.Request.ContentLength > 0 {
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		suite, err := store.GetSuite(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}

		cfg := executor.RunnerConfig{
			BaseURL:     req.BaseURL,
			Concurrency: req.Concurrency,
			Timeout:     time.Duration(req.TimeoutSeconds) * time.Second,
		}
		if cfg.BaseURL == "" && suite.BaseURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "suite has no base URL; provide base_url in the request",
			})
			return
		}

		if req.Sync {
			run, err := executeAndPersist(c.Request.Context(), store, runner, suite, cfg)
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, run)
			return
		}

		taskID, err := sched.Submit(
			fmt.Sprintf("execute %s", suite.Name),
			taskPriority(req.Priority),
			time.Duration(req.DelaySeconds)*time.Second,
			func(ctx context.Context) (*datatypes.SuiteRun, error) {
				return executeAndPersist(ctx, store, runner, suite, cfg)
			},
			executor.TaskCallbacks{},
		)
		if err != nil {
			if errors.Is(err, executor.ErrSchedulerStopped) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if m := observability.DefaultMetrics; m != nil {
			m.PendingTasks.Set(float64(sched.Pending()))
		}
		c.JSON(http.StatusAccepted, gin.H{
			"task_id":  taskID,
			"suite_id": suite.ID,
			"status":   "queued",
		})
	}
}

// executeAndPersist runs the suite, stores the run, and stores the
// derived report. Storage failures surface as task errors so the task
// status reflects them.
func executeAndPersist(ctx context.Context, store *storage.Store, runner *executor.Runner,
	suite *datatypes.TestSuite, cfg executor.RunnerConfig) (*datatypes.SuiteRun, error) {

	run, err := runner.Run(ctx, suite, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.PutRun(run); err != nil {
		return run, fmt.Errorf("persist run %s: %w", run.ID, err)
	}

	rep := report.Analyze(run)
	if err := store.PutReport(rep); err != nil {
		return run, fmt.Errorf("persist report %s: %w", rep.ID, err)
	}
	slog.Info("Run and report persisted", "run_id", run.ID, "report_id", rep.ID)

	if m := observability.DefaultMetrics; m != nil {
		m.ObserveRun(string(run.Status), map[string]int{
			string(datatypes.StatusPassed):  run.Passed,
			string(datatypes.StatusFailed):  run.Failed,
			string(datatypes.StatusError):   run.Errored,
			string(datatypes.StatusSkipped): run.Skipped,
		}, run.FinishedAt.Sub(run.StartedAt).Seconds())
	}
	return run, nil
}

// GetTask reports the status of a scheduled task, including the run ID
// once execution finished.
func GetTask(sched *executor.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := sched.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		response := gin.H{
			"id":         task.ID,
			"name":       task.Name,
			"status":     task.Status,
			"created_at": task.CreatedAt,
		}
		if !task.StartedAt.IsZero() {
			response["started_at"] = task.StartedAt
		}
		if !task.FinishedAt.IsZero() {
			response["finished_at"] = task.FinishedAt
		}
		if task.Run != nil {
			response["run_id"] = task.Run.ID
			response["run_status"] = task.Run.Status
		}
		if task.Error != "" {
			response["error"] = task.Error
		}
		c.JSON(http.StatusOK, response)
	}
}

// CancelTask cancels a still-pending task.
func CancelTask(sched *executor.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := sched.Cancel(c.Param("id"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"status": "cancelled", "id": c.Param("id")})
		case errors.Is(err, executor.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, executor.ErrTaskNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

// GetRun returns one stored suite run in full.
func GetRun(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := store.GetRun(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func taskPriority(p string) executor.TaskPriority {
	switch p {
	case "high":
		return executor.TaskPriorityHigh
	case "low":
		return executor.TaskPriorityLow
	default:
		return executor.TaskPriorityNormal
	}
}
