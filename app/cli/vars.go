package cli

import (
	"github.com/charmbracelet/log"

	"zodo/app/config"
	"zodo/app/services"
)

// Session instances, set by bootstrap before each command runs.
var (
	Cfg     *config.Config
	Logger  *log.Logger
	Service *services.TaskService
)
