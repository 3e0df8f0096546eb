// MODUL: pipeline
// ZWECK: Tasks im kritischen Abschnitt: Quelle -> RGBA -> Resample -> Encode -> Invoke -> Decode
// INPUT: Engine, Request-Snapshot
// OUTPUT: Result / ImageResult
// NEBENEFFEKTE: Liest Bilddateien
// ABHAENGIGKEITEN: vision, tensor, engine, labels, logutil
// HINWEISE: Specs werden vor jedem Encode/Decode frisch von der Engine gelesen

package bridge

import (
	"time"

	"github.com/tflitebridge/tflite/engine"
	"github.com/tflitebridge/tflite/labels"
	"github.com/tflitebridge/tflite/logutil"
	"github.com/tflitebridge/tflite/tensor"
	"github.com/tflitebridge/tflite/vision"
)

func (it *Interpreter) imageTask(eng engine.Engine, req request[ImageRequest]) (Result, error) {
	start := time.Now()

	img, err := loadSource(req.Args)
	if err != nil {
		return Result{}, err
	}

	out, err := invokeImage(eng, img, req.Args.Preprocess)
	if err != nil {
		return Result{}, err
	}
	return it.vectorResult(eng, req.ID, out, req.Args.Top, start)
}

func (it *Interpreter) frameTask(eng engine.Engine, req request[FrameRequest]) (Result, error) {
	start := time.Now()
	a := req.Args

	img := vision.ConvertYUVToRGBA(a.Planes, a.Width, a.Height)
	img = vision.Rotate(img, a.Rotation)

	out, err := invokeImage(eng, img, a.Preprocess)
	if err != nil {
		return Result{}, err
	}
	return it.vectorResult(eng, req.ID, out, a.Top, start)
}

func (it *Interpreter) binaryTask(eng engine.Engine, req request[BinaryRequest]) (Result, error) {
	start := time.Now()

	in, err := eng.InputSpec()
	if err != nil {
		return Result{}, err
	}
	if err := tensor.CheckSize(req.Args.Input, in); err != nil {
		return Result{}, err
	}

	out, err := eng.Invoke(req.Args.Input)
	if err != nil {
		return Result{}, err
	}
	return it.vectorResult(eng, req.ID, out, req.Args.Top, start)
}

func pix2pixTask(eng engine.Engine, req request[ImageRequest]) (ImageResult, error) {
	start := time.Now()

	img, err := loadSource(req.Args)
	if err != nil {
		return ImageResult{}, err
	}

	out, err := invokeImage(eng, img, req.Args.Preprocess)
	if err != nil {
		return ImageResult{}, err
	}

	spec, err := eng.OutputSpec()
	if err != nil {
		return ImageResult{}, err
	}

	// uint8-Ausgaben werden roh uebernommen, float immer ueber v*std + mean,
	// unabhaengig von Normalize beim Encode
	decoded, err := tensor.DecodeImage(out, spec, req.Args.Mean, req.Args.Std)
	if err != nil {
		return ImageResult{}, err
	}

	return ImageResult{ID: req.ID, Image: decoded, Duration: time.Since(start)}, nil
}

// loadSource dekodiert Bild-Bytes oder liest die Datei
func loadSource(r ImageRequest) (*vision.PixelImage, error) {
	if len(r.Data) > 0 {
		return vision.LoadImageFromBytes(r.Data)
	}
	return vision.LoadImage(r.Path)
}

// invokeImage bringt img auf die Eingabe-Spec der Engine, kodiert und fuehrt aus
func invokeImage(eng engine.Engine, img *vision.PixelImage, p Preprocess) ([]byte, error) {
	in, err := eng.InputSpec()
	if err != nil {
		return nil, err
	}
	if err := in.ValidateImage(); err != nil {
		return nil, err
	}

	size := in.ImageSize()
	aff := vision.ComputeTransform(img.Width, img.Height, size, size, p.MaintainAspect)
	img = vision.Resample(img, aff, size, size, in.Channels())

	buf, err := tensor.Encode(img, in, tensor.EncodeOptions{Mean: p.Mean, Std: p.Std, Normalize: p.Normalize})
	if err != nil {
		return nil, err
	}
	logutil.Trace("encoded input", "spec", in, "bytes", len(buf))
	return eng.Invoke(buf)
}

// vectorResult dekodiert die Ausgabe und waehlt bei geladenen Labels die Top-K
func (it *Interpreter) vectorResult(eng engine.Engine, id string, out []byte, top Top, start time.Time) (Result, error) {
	spec, err := eng.OutputSpec()
	if err != nil {
		return Result{}, err
	}

	vec, err := tensor.DecodeVector(out, spec)
	if err != nil {
		return Result{}, err
	}

	res := Result{ID: id, Output: vec}
	if top.NumResults > 0 {
		res.Recognitions = labels.TopK(vec, it.Labels(), top.NumResults, top.Threshold)
	}
	res.Duration = time.Since(start)
	return res, nil
}
