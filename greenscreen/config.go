//go:build js && wasm

package greenscreen

import (
	"syscall/js"

	"github.com/esimov/greenscreen-wasm/config"
	"github.com/esimov/greenscreen-wasm/pixels"
)

// LoadConfig fetches the configuration served next to the page.
// On failure the defaults are returned together with the error.
func LoadConfig() (*config.Config, error) {
	href := js.Global().Get("location").Get("href").String()
	b, err := pixels.LoadAsset(href, "/"+config.FileName)
	if err != nil {
		return config.Default(), err
	}
	cfg, err := config.Parse(b)
	if err != nil {
		return config.Default(), err
	}
	return cfg, nil
}
