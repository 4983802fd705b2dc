package main

import (
	"fmt"
	"os"

	"github.com/menttor/menttor-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	if err := a.Run(":" + a.Cfg.Port); err != nil {
		a.Log.Error("Server exited", "error", err)
	}
}
