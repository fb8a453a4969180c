// Команда releasegate проверяет релизный тег перед публикацией.
// Используется в CI: тег release-X.Y.Z должен совпадать с объявленной
// версией пакета, иначе команда завершается с кодом 1 и публикация
// прерывается.
package main

import (
	"flag"
	"os"

	"github.com/vektalab/embedviz/pkg/logger"
	"github.com/vektalab/embedviz/pkg/version"
)

func main() {
	log := logger.NewSlogLogger()

	var tag string
	flag.StringVar(&tag, "tag", "", "release tag to verify (e.g. release-1.2.3)")
	flag.Parse()

	if tag == "" {
		tag = os.Getenv("RELEASE_TAG")
	}
	if tag == "" {
		log.Errorf(nil, "release tag is required: pass -tag or set RELEASE_TAG")
		os.Exit(1)
	}

	if err := version.CheckTag(tag, version.Version); err != nil {
		log.Errorf(err, "release tag check failed: tag %q, declared version %q", tag, version.Version)
		os.Exit(1)
	}

	log.Infof("release tag %q matches declared version %q", tag, version.Version)
}
