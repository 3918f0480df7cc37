package main

import (
	"errors"
	"net/http"

	_ "github.com/joho/godotenv/autoload"

	"github.com/threadboard/backend/internal/logging"
	"github.com/threadboard/backend/internal/server"
)

func main() {
	logging.Init()
	log := logging.WithComponent("main")

	srv := server.NewServer()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
}
