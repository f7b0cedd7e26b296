//go:build js && wasm

// Package greenscreen wires the webcam, the threshold controls and the photo strip
// of the page to the frame sampler.
package greenscreen

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strconv"
	"syscall/js"

	"github.com/esimov/greenscreen-wasm/chromakey"
	"github.com/esimov/greenscreen-wasm/config"
	"github.com/esimov/greenscreen-wasm/detector"
	"github.com/esimov/greenscreen-wasm/effect"
	"github.com/esimov/greenscreen-wasm/pixels"
	"github.com/esimov/greenscreen-wasm/sampler"
	"github.com/esimov/greenscreen-wasm/schedule"
	"github.com/esimov/greenscreen-wasm/snapshot"
)

// Canvas struct holds the Javascript objects needed for the Canvas creation
type Canvas struct {
	succCh chan struct{}
	errCh  chan error
	cancel context.CancelFunc

	// DOM elements
	window     js.Value
	doc        js.Value
	body       js.Value
	controls   js.Value
	strip      js.Value
	snap       js.Value
	windowSize struct{ width, height int }

	// Canvas properties
	canvas  js.Value
	ctx     js.Value
	surface *surface

	// Webcam properties
	video js.Value

	cfg       *config.Config
	logger    *slog.Logger
	sampler   *sampler.Sampler
	ticker    *schedule.Ticker
	exporter  *snapshot.Exporter
	det       *detector.Detector
	blur      *effect.Blur
	triangles *effect.Triangulate
	callbacks []js.Func

	// Canvas interaction related variables
	guardFaces bool
	inverted   []string
}

// Names of the threshold controls, in display order.
var controlNames = []string{"rmin", "rmax", "gmin", "gmax", "bmin", "bmax"}

// NewCanvas creates the page elements: the canvas, the threshold sliders,
// the photo button, the photo strip and the shutter sound.
func NewCanvas(cfg *config.Config, logger *slog.Logger) *Canvas {
	var c Canvas
	c.cfg = cfg
	c.logger = logger
	c.window = js.Global()
	c.doc = c.window.Get("document")
	c.body = c.doc.Get("body")

	c.windowSize.width = cfg.Session.Width
	c.windowSize.height = cfg.Session.Height

	c.controls = c.doc.Call("createElement", "div")
	c.controls.Set("className", "rgb")
	initial, err := cfg.InitialLevels()
	if err != nil {
		logger.Warn("ignoring the startup preset", "error", err)
		initial = cfg.Thresholds
	}
	levels := initial.Controls()
	for _, name := range controlNames {
		label := c.doc.Call("createElement", "label")
		label.Set("htmlFor", name)
		label.Set("textContent", name+":")

		input := c.doc.Call("createElement", "input")
		input.Set("type", "range")
		input.Set("id", name)
		input.Set("name", name)
		input.Set("min", 0)
		input.Set("max", 255)
		input.Set("value", levels[name])

		c.controls.Call("appendChild", label)
		c.controls.Call("appendChild", input)
	}
	c.body.Call("appendChild", c.controls)

	button := c.doc.Call("createElement", "button")
	button.Set("textContent", "Take Photo")
	button.Call("addEventListener", "click", c.callback(func(this js.Value, args []js.Value) interface{} {
		go c.takePhoto()
		return nil
	}))
	c.body.Call("appendChild", button)

	c.canvas = c.doc.Call("createElement", "canvas")
	c.canvas.Set("width", c.windowSize.width)
	c.canvas.Set("height", c.windowSize.height)
	c.canvas.Set("className", "photo")
	c.body.Call("appendChild", c.canvas)
	c.ctx = c.canvas.Call("getContext", "2d")

	c.strip = c.doc.Call("createElement", "div")
	c.strip.Set("className", "strip")
	c.body.Call("appendChild", c.strip)

	c.snap = c.doc.Call("createElement", "audio")
	c.snap.Set("className", "snap")
	c.snap.Set("src", "snap.mp3")
	c.snap.Set("hidden", true)
	c.body.Call("appendChild", c.snap)

	c.ticker = schedule.New(cfg.Session.Interval, logger)
	c.exporter = snapshot.NewExporter(cfg.Snapshot.Quality, cfg.Snapshot.ThumbWidth)
	c.det = detector.NewDetector()
	c.blur = effect.NewBlur(cfg.Session.BlurRadius)
	c.triangles = effect.NewTriangulate(cfg.Session.Triangles)

	return &c
}

// StartWebcam reads the webcam data and feeds it into the video element.
// It returns once the stream can be played, or with an error if the access was denied.
func (c *Canvas) StartWebcam() (*Canvas, error) {
	var err error
	c.succCh = make(chan struct{})
	c.errCh = make(chan error)

	c.video = c.doc.Call("createElement", "video")

	// If we don't do this, the stream will not be played.
	c.video.Set("autoplay", 1)
	c.video.Set("playsinline", 1) // important for iPhones
	c.video.Set("className", "player")

	// The video element is only a frame source, the canvas is what gets displayed.
	c.video.Set("width", 0)
	c.video.Set("height", 0)

	c.body.Call("appendChild", c.video)

	canplay := c.callback(func(this js.Value, args []js.Value) interface{} {
		go func() {
			c.succCh <- struct{}{}
		}()
		return nil
	})
	once := js.Global().Get("Object").New()
	once.Set("once", true)
	c.video.Call("addEventListener", "canplay", canplay, once)

	success := c.callback(func(this js.Value, args []js.Value) interface{} {
		go func() {
			c.video.Set("srcObject", args[0])
			c.video.Call("play")
		}()
		return nil
	})

	failure := c.callback(func(this js.Value, args []js.Value) interface{} {
		go func() {
			err = fmt.Errorf("failed initialising the camera: %s", args[0].Call("toString").String())
			c.errCh <- err
		}()
		return nil
	})

	opts := js.Global().Get("Object").New()

	videoSize := js.Global().Get("Object").New()
	videoSize.Set("width", c.windowSize.width)
	videoSize.Set("height", c.windowSize.height)

	opts.Set("video", videoSize)
	opts.Set("audio", false)

	promise := c.window.Get("navigator").Get("mediaDevices").Call("getUserMedia", opts)
	promise.Call("then", success, failure)

	select {
	case <-c.succCh:
		return c, nil
	case err := <-c.errCh:
		return nil, err
	}
}

// Render sizes the canvas to the stream resolution and runs the frame loop until Stop is called.
func (c *Canvas) Render() error {
	defer c.release()

	width, height := c.video.Get("videoWidth").Int(), c.video.Get("videoHeight").Int()
	if width == 0 || height == 0 {
		width, height = c.windowSize.width, c.windowSize.height
	}
	c.canvas.Set("width", width)
	c.canvas.Set("height", height)
	c.logger.Info("webcam started", "width", width, "height", height, "interval", c.cfg.Session.Interval)

	c.surface = &surface{ctx: c.ctx, video: c.video, width: width, height: height}
	c.sampler = sampler.New(width, height, c.surface, c.surface, c.readThresholds, c.cfg.Session.Workers, c.logger)
	c.detectKeyPress()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	err := c.ticker.Run(ctx, c.sampler.Tick)
	st := c.ticker.Stats()
	c.logger.Info("render loop stopped", "ticks", st.Ticks, "skipped", st.Skipped, "failed", st.Failed)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop stops the rendering.
func (c *Canvas) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// readThresholds collects the current value of every control under `.rgb`.
func (c *Canvas) readThresholds() chromakey.Thresholds {
	inputs := c.doc.Call("querySelectorAll", ".rgb input")
	values := make(map[string]string, inputs.Length())
	for i := 0; i < inputs.Length(); i++ {
		input := inputs.Index(i)
		values[input.Get("name").String()] = input.Get("value").String()
	}
	t := chromakey.ParseThresholds(values)

	// Inverted ranges key nothing; report them once, when they change.
	if inv := t.Inverted(); !slices.Equal(inv, c.inverted) {
		c.inverted = inv
		if len(inv) > 0 {
			c.logger.Warn("threshold minimum above maximum, nothing will be keyed", "channels", inv)
		}
	}
	return t
}

// applyLevels moves the sliders to the given positions.
func (c *Canvas) applyLevels(levels config.Levels) {
	for name, v := range levels.Controls() {
		input := c.doc.Call("querySelector", ".rgb input[name="+name+"]")
		if input.Truthy() {
			input.Set("value", strconv.Itoa(v))
		}
	}
}

// takePhoto exports the last rendered frame and prepends it to the photo strip.
func (c *Canvas) takePhoto() {
	if c.sampler == nil {
		return
	}
	// play the sound
	c.snap.Set("currentTime", 0)
	c.snap.Call("play")

	frame, err := c.sampler.Frame()
	if err != nil {
		c.logger.Warn("no frame to export", "error", err)
		return
	}
	photo, err := c.exporter.Export(frame)
	if err != nil {
		c.logger.Error("exporting the photo failed", "error", err)
		return
	}

	link := c.doc.Call("createElement", "a")
	link.Set("id", "photo-"+photo.ID)
	link.Set("href", photo.Href)
	link.Call("setAttribute", "download", photo.Filename)

	img := c.doc.Call("createElement", "img")
	img.Set("src", photo.Preview)
	img.Set("alt", photo.Alt)
	link.Call("appendChild", img)

	c.strip.Call("insertBefore", link, c.strip.Get("firstChild"))
	c.logger.Debug("photo taken", "id", photo.ID)
}

// toggleFaceGuard protects the detected faces from keying. The cascade is
// fetched the first time the guard is enabled.
func (c *Canvas) toggleFaceGuard() {
	c.guardFaces = !c.guardFaces
	if !c.guardFaces {
		c.sampler.SetGuard(nil)
		return
	}
	if !c.det.Ready() {
		href := c.window.Get("location").Get("href").String()
		cascade, err := pixels.LoadAsset(href, detector.CascadePath)
		if err == nil {
			err = c.det.Unpack(cascade)
		}
		if err != nil {
			c.logger.Warn("face guard unavailable", "error", err)
			c.guardFaces = false
			return
		}
	}
	c.sampler.SetGuard(c.faceMask)
}

// faceMask returns the union of the face contours found in frame.
func (c *Canvas) faceMask(frame *image.NRGBA) image.Image {
	width, height := c.sampler.Size()
	gray := pixels.RgbaToGrayscale(frame.Pix, width, height)
	faces, err := c.det.DetectFaces(gray, height, width)
	if err != nil {
		c.logger.Debug("face detection failed", "error", err)
		return nil
	}
	mask := detector.Mask(frame.Bounds(), faces)
	if mask == nil {
		return nil
	}
	return mask
}

// detectKeyPress listen for the keypress event and retrieves the key code.
func (c *Canvas) detectKeyPress() {
	keyEventHandler := c.callback(func(this js.Value, args []js.Value) interface{} {
		keyCode := args[0].Get("key").String()
		go c.handleKey(keyCode)
		return nil
	})
	c.doc.Call("addEventListener", "keypress", keyEventHandler)
}

func (c *Canvas) handleKey(key string) {
	switch key {
	case "r":
		c.sampler.Toggle(effect.Red{})
	case "s":
		c.sampler.Toggle(effect.RGBSplit{})
	case "b":
		c.sampler.Toggle(c.blur)
	case "]":
		c.blur.Grow(1)
	case "[":
		c.blur.Grow(-1)
	case "t":
		c.sampler.Toggle(c.triangles)
	case "=":
		c.triangles.SetPoints(c.triangles.Points() + 20)
	case "-":
		c.triangles.SetPoints(c.triangles.Points() - 20)
	case "f":
		c.toggleFaceGuard()
	case "p":
		c.takePhoto()
	default:
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 || n > len(c.cfg.Presets) {
			return
		}
		preset := c.cfg.Presets[n-1]
		levels, err := preset.Levels()
		if err != nil {
			c.logger.Warn("invalid preset", "preset", preset.Name, "error", err)
			return
		}
		c.applyLevels(levels)
		c.logger.Info("preset applied", "preset", preset.Name)
	}
}

// callback wraps fn in a js.Func released together with the canvas.
func (c *Canvas) callback(fn func(this js.Value, args []js.Value) interface{}) js.Func {
	f := js.FuncOf(fn)
	c.callbacks = append(c.callbacks, f)
	return f
}

// release frees the Javascript callbacks to free up resources.
func (c *Canvas) release() {
	for _, f := range c.callbacks {
		f.Release()
	}
	c.callbacks = nil
}

// Alert calls the `alert` Javascript function
func (c *Canvas) Alert(args ...interface{}) {
	alert := c.window.Get("alert")
	alert.Invoke(args...)
}

// Log calls the `console.log` Javascript function
func (c *Canvas) Log(args ...interface{}) {
	c.window.Get("console").Call("log", args...)
}
