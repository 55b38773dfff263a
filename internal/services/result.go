package services

import "net/http"

// ResultKind classifies a workflow outcome. Soft failures are expected
// steady-state conditions reported to the caller with a 200; hard failures
// are system faults that escalate the status and notify operators.
type ResultKind int

const (
	KindOk ResultKind = iota
	KindSoftFailure
	KindHardFailure
)

// Result is the structured outcome every workflow returns. No error ever
// crosses a workflow boundary; callers render results, they never recover
// panics or unwrap causes.
type Result struct {
	Kind        ResultKind
	StatusCode  int
	Title       string
	Description string
}

// Ok builds a success result
func Ok(title, description string) *Result {
	return &Result{
		Kind:        KindOk,
		StatusCode:  http.StatusOK,
		Title:       title,
		Description: description,
	}
}

// SoftFailure builds a business-level failure result. The caller still sees
// a 200 with a descriptive title; nothing is retried or notified.
func SoftFailure(title, description string) *Result {
	return &Result{
		Kind:        KindSoftFailure,
		StatusCode:  http.StatusOK,
		Title:       title,
		Description: description,
	}
}

// HardFailure builds a system-level failure result
func HardFailure(title, description string) *Result {
	return &Result{
		Kind:        KindHardFailure,
		StatusCode:  http.StatusInternalServerError,
		Title:       title,
		Description: description,
	}
}

// NotFoundFailure builds a 404 result. Only the backup delete path uses it.
func NotFoundFailure(title, description string) *Result {
	return &Result{
		Kind:        KindSoftFailure,
		StatusCode:  http.StatusNotFound,
		Title:       title,
		Description: description,
	}
}

// IsSuccess reports whether the workflow completed its intended mutation
func (r *Result) IsSuccess() bool {
	return r.Kind == KindOk
}
