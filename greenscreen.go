//go:build js && wasm

package main

import (
	"fmt"

	"github.com/esimov/greenscreen-wasm/console"
	"github.com/esimov/greenscreen-wasm/greenscreen"
)

func main() {
	cfg, cfgErr := greenscreen.LoadConfig()
	logger := console.NewLogger(console.ParseLevel(cfg.Log.Level))
	if cfgErr != nil {
		logger.Warn("using the default configuration", "error", cfgErr)
	}

	c := greenscreen.NewCanvas(cfg, logger)
	webcam, err := c.StartWebcam()
	if err != nil {
		logger.Error("Oh No!!", "error", err)
		c.Alert("Webcam not detected!")
	} else {
		err := webcam.Render()
		if err != nil {
			c.Log(fmt.Sprint(err))
		}
	}
}
