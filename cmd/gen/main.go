package main

import (
	"AttendOK/internal/repository"
	"AttendOK/pkg/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	repository.RunGenerate()
}
