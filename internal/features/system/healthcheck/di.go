package system_healthcheck

import (
	"tentspace/internal/cache"
	"tentspace/internal/config"
)

var healthcheckService = &HealthcheckService{
	config.GetEnv(),
	cache.GetCache(),
	config.GetEnv().BackendRootPath,
}
var healthcheckController = &HealthcheckController{
	healthcheckService,
}

func GetHealthcheckController() *HealthcheckController {
	return healthcheckController
}
