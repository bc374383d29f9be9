package main

import (
	"lyrics-backend/internal/app"
	"lyrics-backend/internal/config"
)

func main() {
	cfg := config.Load()
	app := app.New(cfg)
	app.Run()
}
