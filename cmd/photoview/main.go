// Command photoview shows a photo in a gogpu window through the photokit
// editor pipeline.
//
//	photoview photo.jpg --shape circle --scale 1.5
//
// Press Space to cycle the mask between none, circle and square. The window
// redraws only when the frame changes.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/photokit"
	"github.com/gogpu/photokit/integration/gogpuview"
	"github.com/spf13/cobra"

	_ "github.com/gogpu/photokit/gpu" // registers the "gpu" backend
)

var (
	backend string
	shape   string
	scale   float64
	width   int
	height  int
)

var rootCmd = &cobra.Command{
	Use:           "photoview <image>",
	Short:         "Show a photo with pan/zoom and a shape mask in a window",
	Args:          cobra.ExactArgs(1),
	Version:       photokit.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, args []string) error {
		initial, err := photokit.ParseMaskShape(shape)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		img, err := photokit.DecodeImage(f, 0)
		if err != nil {
			return err
		}
		return run(img, initial)
	},
}

func init() {
	fl := rootCmd.Flags()
	fl.StringVar(&backend, "backend", "software", "render backend (software or gpu)")
	fl.StringVar(&shape, "shape", "none", "initial mask shape (none, circle, square)")
	fl.Float64Var(&scale, "scale", 1, "initial canvas zoom")
	fl.IntVar(&width, "width", 800, "window width")
	fl.IntVar(&height, "height", 600, "window height")
}

// settleFrames is how long the window keeps redrawing after a change.
const settleFrames = 30

// shapeCycle is the Space key order.
var shapeCycle = []int{photokit.ToolShapeReset, photokit.ToolCircle, photokit.ToolSquare}

func toolIndex(s photokit.MaskShape) int {
	switch s {
	case photokit.MaskCircle:
		return 1
	case photokit.MaskSquare:
		return 2
	default:
		return 0
	}
}

func run(img *photokit.Pixmap, initial photokit.MaskShape) error {
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("photoview").
		WithSize(width, height).
		WithContinuousRender(false))

	var (
		editor *photokit.Editor
		view   *gogpuview.View
		anim   *gogpu.AnimationToken
		settle int
	)
	tool := toolIndex(initial)
	stale := true

	// The device provider exists only once the window is up, so the
	// editor is built on the first draw.
	setup := func(w, h int) error {
		provider := app.GPUContextProvider()
		if provider == nil {
			return nil
		}
		ropts := []photokit.RendererOption{photokit.WithBackend(backend)}
		if backend != "software" {
			ropts = append(ropts, photokit.WithDeviceProvider(provider))
		}
		var err error
		editor, err = photokit.NewEditor(photokit.WithRendererOptions(ropts...))
		if err != nil {
			return err
		}
		log.Printf("photoview: backend %s", editor.Renderer().BackendName())
		if err := editor.SetImage(img); err != nil {
			return err
		}
		if _, err := editor.SelectTool(shapeCycle[tool]); err != nil {
			return err
		}
		editor.Gesture().OnScaleGesture(scale)

		// New sizes the renderer to the window.
		view, err = gogpuview.New(provider, editor.Renderer(), w, h)
		return err
	}

	app.OnDraw(func(dc *gogpu.Context) {
		w, h := dc.Width(), dc.Height()
		if w <= 0 || h <= 0 {
			return
		}
		if editor == nil {
			if err := setup(w, h); err != nil {
				log.Fatalf("photoview: %v", err)
			}
			if editor == nil {
				return
			}
		}

		if vw, vh := view.Size(); vw != w || vh != h {
			stale = true
			if err := view.Resize(w, h); err != nil {
				log.Printf("photoview: resize view: %v", err)
			}
		}
		if stale {
			stale = false
			settle = settleFrames
			if err := view.Refresh(); err != nil {
				log.Printf("photoview: refresh: %v", err)
			}
		}
		if err := view.RenderTo(dc.AsTextureDrawer()); err != nil {
			log.Printf("photoview: render: %v", err)
		}

		// Captures complete asynchronously; keep drawing at VSync for a
		// few frames so the texture catches up.
		if settle > 0 || view.IsDirty() {
			settle--
			if anim == nil {
				anim = app.StartAnimation()
			}
		} else if anim != nil {
			anim.Stop()
			anim = nil
		}
	})

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key != gpucontext.KeySpace || editor == nil {
			return
		}
		tool = (tool + 1) % len(shapeCycle)
		s, err := editor.SelectTool(shapeCycle[tool])
		if err != nil {
			log.Printf("photoview: select tool: %v", err)
			return
		}
		log.Printf("photoview: mask %s", s)
		stale = true
		if anim == nil {
			anim = app.StartAnimation()
		}
	})

	app.OnClose(func() {
		if anim != nil {
			anim.Stop()
		}
		if view != nil {
			_ = view.Close()
		}
		if editor != nil {
			_ = editor.Close()
		}
	})

	return app.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
