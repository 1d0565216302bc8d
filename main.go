package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/tlatelolco/crime-incidence-api/api/handlers"
	"github.com/tlatelolco/crime-incidence-api/api/scheduler"
	"github.com/tlatelolco/crime-incidence-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		log.Fatal(err)
	}

	s := scheduler.NewScheduler(a.Streets)
	s.Start()
	defer s.Stop()

	zap.S().Infow("crime-incidence-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
