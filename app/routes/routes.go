package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"zodo/app/controllers"
)

// RegisterRoutes sets up all routes for the application.
func RegisterRoutes(router *mux.Router, taskController *controllers.TaskController) {
	router.HandleFunc("/tree", taskController.GetTree).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{ref}", taskController.GetTask).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{ref}", taskController.UpdateTask).Methods(http.MethodPut)
	router.HandleFunc("/tasks/{ref}", taskController.DeleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/tasks/{ref}/children", taskController.CreateChild).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{ref}/parent", taskController.MoveTask).Methods(http.MethodPut)
	router.HandleFunc("/export", taskController.Export).Methods(http.MethodGet)
	router.HandleFunc("/import", taskController.Import).Methods(http.MethodPost)
}

// NewRouter builds a router with every route registered.
func NewRouter(taskController *controllers.TaskController) *mux.Router {
	router := mux.NewRouter()
	RegisterRoutes(router, taskController)
	return router
}
