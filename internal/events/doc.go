// Package events carries task-request events from services to the task
// runner without either side importing the other. The import service emits
// a TaskRequestEvent after persisting its job row; a handler in the task
// package turns the event into an executable task. Both depend on this
// package only, which keeps the service layer free of runner types.
package events
