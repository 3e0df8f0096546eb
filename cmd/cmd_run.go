// cmd_run.go - Lokale Inferenz ohne Server
// Hauptfunktionen: RunHandler, FrameHandler, Pix2PixHandler, loadInterpreter
package cmd

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tflitebridge/tflite/bridge"
	"github.com/tflitebridge/tflite/envconfig"
	"github.com/tflitebridge/tflite/vision"
)

// ============================================================================
// Flags
// ============================================================================

// addLoadFlags - Flags zum Laden des Modells
func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().String("labels", "", "Label file, one label per line")
	cmd.Flags().String("backend", "", "Engine backend (default from TFLITE_BACKEND)")
	cmd.Flags().Int("threads", 0, "Interpreter threads (default from TFLITE_NUM_THREADS)")
	cmd.Flags().Bool("accelerator", envconfig.Accelerator(), "Use the hardware delegate")
	cmd.Flags().Bool("asset", false, "Resolve MODEL under TFLITE_ASSETS")
}

// addPreprocessFlags - Flags fuer Resampling und Encoding
func addPreprocessFlags(cmd *cobra.Command) {
	cmd.Flags().Float32("mean", 0, "Mean subtracted from float inputs")
	cmd.Flags().Float32("std", 1, "Std dividing float inputs")
	cmd.Flags().Bool("normalize", envconfig.Normalize(), "Write float inputs as (v - mean) / std")
	cmd.Flags().Bool("maintain-aspect", envconfig.MaintainAspect(), "Keep the aspect ratio when resampling")
	cmd.Flags().Bool("async", false, "Run on the inference worker instead of inline")
}

// addTopFlags - Flags fuer die Recognitions
func addTopFlags(cmd *cobra.Command) {
	cmd.Flags().Int("top", 5, "Number of recognitions to show (needs --labels)")
	cmd.Flags().Float32("threshold", 0.1, "Minimum confidence of a recognition")
	cmd.Flags().String("format", "", "Output format (json)")
}

func preprocessFlags(cmd *cobra.Command) (bridge.Preprocess, bool, error) {
	var p bridge.Preprocess
	var err error
	if p.Mean, err = cmd.Flags().GetFloat32("mean"); err != nil {
		return p, false, err
	}
	if p.Std, err = cmd.Flags().GetFloat32("std"); err != nil {
		return p, false, err
	}
	if p.Normalize, err = cmd.Flags().GetBool("normalize"); err != nil {
		return p, false, err
	}
	if p.MaintainAspect, err = cmd.Flags().GetBool("maintain-aspect"); err != nil {
		return p, false, err
	}
	async, err := cmd.Flags().GetBool("async")
	return p, async, err
}

func topFlags(cmd *cobra.Command) (bridge.Top, error) {
	var top bridge.Top
	var err error
	if top.NumResults, err = cmd.Flags().GetInt("top"); err != nil {
		return top, err
	}
	top.Threshold, err = cmd.Flags().GetFloat32("threshold")
	return top, err
}

// loadInterpreter - Erstellt einen Interpreter und laedt MODEL mit den Load-Flags
func loadInterpreter(cmd *cobra.Command, model string) (*bridge.Interpreter, error) {
	req := bridge.LoadRequest{Model: model}
	var err error
	if req.Labels, err = cmd.Flags().GetString("labels"); err != nil {
		return nil, err
	}
	if req.Backend, err = cmd.Flags().GetString("backend"); err != nil {
		return nil, err
	}
	if req.Threads, err = cmd.Flags().GetInt("threads"); err != nil {
		return nil, err
	}
	if req.Accelerator, err = cmd.Flags().GetBool("accelerator"); err != nil {
		return nil, err
	}
	if req.IsAsset, err = cmd.Flags().GetBool("asset"); err != nil {
		return nil, err
	}

	it := bridge.New(bridge.WithRegistry(registry))
	if _, err := it.LoadModel(req); err != nil {
		it.Close()
		return nil, err
	}
	slog.Debug("model loaded", "model", model, "status", it.Status().Model)
	return it, nil
}

// ============================================================================
// run
// ============================================================================

// RunHandler - Fuehrt MODEL auf IMAGE aus und zeigt Vektor oder Recognitions
func RunHandler(cmd *cobra.Command, args []string) error {
	p, async, err := preprocessFlags(cmd)
	if err != nil {
		return err
	}
	top, err := topFlags(cmd)
	if err != nil {
		return err
	}

	it, err := loadInterpreter(cmd, args[0])
	if err != nil {
		return err
	}
	defer it.Close()

	if len(it.Labels()) == 0 {
		top.NumResults = 0
	}

	res, err := it.RunOnImageSync(cmd.Context(), bridge.ImageRequest{
		Path:       args[1],
		Preprocess: p,
		Top:        top,
		Async:      async,
	})
	if err != nil {
		return err
	}

	return displayResult(cmd, res)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run MODEL IMAGE",
		Short: "Run a model on an image file",
		Args:  cobra.ExactArgs(2),
		RunE:  RunHandler,
	}
	addLoadFlags(cmd)
	addPreprocessFlags(cmd)
	addTopFlags(cmd)
	return cmd
}

// ============================================================================
// frame
// ============================================================================

// FrameHandler - Fuehrt MODEL auf einem Kamera-Frame aus Y-, U- und V-Dateien aus
func FrameHandler(cmd *cobra.Command, args []string) error {
	p, async, err := preprocessFlags(cmd)
	if err != nil {
		return err
	}
	top, err := topFlags(cmd)
	if err != nil {
		return err
	}

	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	rotation, _ := cmd.Flags().GetInt("rotation")

	var planes [3][]byte
	for i, path := range args[1:4] {
		if planes[i], err = os.ReadFile(path); err != nil {
			return err
		}
	}

	it, err := loadInterpreter(cmd, args[0])
	if err != nil {
		return err
	}
	defer it.Close()

	if len(it.Labels()) == 0 {
		top.NumResults = 0
	}

	res, err := it.RunOnFrameSync(cmd.Context(), bridge.FrameRequest{
		Planes:     vision.Planes{Y: planes[0], U: planes[1], V: planes[2]},
		Width:      width,
		Height:     height,
		Rotation:   rotation,
		Preprocess: p,
		Top:        top,
		Async:      async,
	})
	if err != nil {
		return err
	}

	return displayResult(cmd, res)
}

func newFrameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frame MODEL Y U V",
		Short: "Run a model on a camera frame given as three plane files",
		Args:  cobra.ExactArgs(4),
		RunE:  FrameHandler,
	}
	cmd.Flags().Int("width", 0, "Frame width in pixels")
	cmd.Flags().Int("height", 0, "Frame height in pixels")
	cmd.Flags().Int("rotation", 0, "Sensor rotation in degrees, clockwise")
	cmd.MarkFlagRequired("width")
	cmd.MarkFlagRequired("height")

	addLoadFlags(cmd)
	addPreprocessFlags(cmd)
	addTopFlags(cmd)
	return cmd
}

// ============================================================================
// pix2pix
// ============================================================================

// Pix2PixHandler - Fuehrt ein Bild-zu-Bild Modell aus und schreibt OUTPUT als PNG
func Pix2PixHandler(cmd *cobra.Command, args []string) error {
	p, async, err := preprocessFlags(cmd)
	if err != nil {
		return err
	}

	it, err := loadInterpreter(cmd, args[0])
	if err != nil {
		return err
	}
	defer it.Close()

	res, err := it.RunImageToImageSync(cmd.Context(), bridge.ImageRequest{
		Path:       args[1],
		Preprocess: p,
		Async:      async,
	})
	if err != nil {
		return err
	}

	f, err := os.Create(args[2])
	if err != nil {
		return err
	}
	if err := png.Encode(f, res.Image.RGBA()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d) in %s\n", args[2], res.Image.Width, res.Image.Height, res.Duration)
	return nil
}

func newPix2PixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pix2pix MODEL IMAGE OUTPUT",
		Short: "Run an image-to-image model and write the result as PNG",
		Args:  cobra.ExactArgs(3),
		RunE:  Pix2PixHandler,
	}
	addLoadFlags(cmd)
	addPreprocessFlags(cmd)
	return cmd
}
