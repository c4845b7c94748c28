// Command coursebot serves the course menu bot.
package main

import (
	"log"

	"github.com/m3rciful/coursebot/app"
	corecmd "github.com/m3rciful/coursebot/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
