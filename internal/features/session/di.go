package session

import "tentspace/internal/config"

var sessionService = NewSessionService(config.GetEnv().AuthJWTSecret)

var sessionController = &SessionController{}

func GetSessionService() *SessionService {
	return sessionService
}

func GetSessionController() *SessionController {
	return sessionController
}
