package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timesheet_sync_workflow_results_total",
		Help: "Workflow outcomes by workflow name and result kind",
	}, []string{"workflow", "outcome"})

	retryEnqueues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timesheet_sync_retry_enqueues_total",
		Help: "Deferred writes pushed to the retry queue by operation",
	}, []string{"operation"})

	reconciliationChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timesheet_sync_reconciliation_changes_total",
		Help: "Reconciliation pass changes by change type",
	}, []string{"change"})

	cleanupDeletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timesheet_sync_cleanup_deletions_total",
		Help: "Mapping rows removed by the retention cleanup",
	})
)

func outcomeLabel(kind ResultKind) string {
	switch kind {
	case KindOk:
		return "ok"
	case KindSoftFailure:
		return "soft_failure"
	default:
		return "hard_failure"
	}
}

// recordResult counts a finished workflow invocation
func recordResult(workflow string, r *Result) *Result {
	workflowResults.WithLabelValues(workflow, outcomeLabel(r.Kind)).Inc()
	return r
}
