package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"timeoff/internal/app"
	"timeoff/internal/handlers"
	"timeoff/internal/logger"

	"github.com/gofiber/fiber/v2"
)

func main() {
	log := logger.New("main")

	application, err := app.New()
	if err != nil {
		log.Er("failed to initialize application", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Er("failed to close application", err)
		}
	}()

	server := fiber.New(fiber.Config{
		AppName: "timeoff",
	})

	if err := handlers.Router(server, application); err != nil {
		log.Er("failed to register routes", err)
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Er("failed to shut down server", err)
		}
	}()

	address := fmt.Sprintf(":%d", application.Config.ServerPort)
	log.Info("listening", "address", address)
	if err := server.Listen(address); err != nil {
		log.Er("server stopped", err)
		os.Exit(1)
	}
}
