package main

import (
	"os"

	"github.com/vektalab/embedviz/internal/app"
	config "github.com/vektalab/embedviz/internal/cfg"
	"github.com/vektalab/embedviz/pkg/logger"
)

//	@title			EmbedViz API
//	@version		1.0
//	@description	Пайплайн обучения классификатора и выгрузки эмбеддингов для визуализации
//	@host			localhost:8080
//	@BasePath		/api/v1

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
