// MODUL: handlers
// ZWECK: Gin-Handler fuer Load, Run-Operationen und Status
// INPUT: JSON-Requests aus api
// OUTPUT: JSON-Responses aus api
// NEBENEFFEKTE: Laedt Modelle, fuehrt Inferenzen aus
// ABHAENGIGKEITEN: gin-gonic/gin, bridge, api, envconfig, image/png (stdlib)
// HINWEISE: Der Handler wartet auch bei async=true auf das Ergebnis,
//           async waehlt nur den Ausfuehrungsort (Worker statt Request-Goroutine)

package server

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tflitebridge/tflite/api"
	"github.com/tflitebridge/tflite/bridge"
	"github.com/tflitebridge/tflite/envconfig"
	"github.com/tflitebridge/tflite/vision"
)

// ============================================================================
// Load / Status
// ============================================================================

// LoadHandler behandelt POST /api/load
func (s *Server) LoadHandler(c *gin.Context) {
	var req api.LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidRequest(err))
		return
	}
	if req.Model == "" {
		writeError(c, invalidRequest(errors.New("model is required")))
		return
	}

	res, err := s.it.LoadModel(bridge.LoadRequest{
		Model:       req.Model,
		IsAsset:     req.IsAsset,
		Threads:     req.Threads,
		Accelerator: req.Accelerator,
		Labels:      req.Labels,
		Backend:     req.Backend,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.LoadResponse{Result: res, Model: modelInfo(s.it.Status().Model)})
}

// StatusHandler behandelt GET /api/status
func (s *Server) StatusHandler(c *gin.Context) {
	st := s.it.Status()
	c.JSON(http.StatusOK, api.StatusResponse{
		Loaded: st.Loaded,
		Busy:   st.Busy,
		Model:  modelInfo(st.Model),
		Stats: api.Stats{
			Admitted:  st.Stats.Admitted,
			Rejected:  st.Stats.Rejected,
			Completed: st.Stats.Completed,
			Failed:    st.Stats.Failed,
		},
		Backends: s.it.Backends(),
	})
}

func modelInfo(m *bridge.ModelInfo) *api.ModelInfo {
	if m == nil {
		return nil
	}
	return &api.ModelInfo{
		Key:      m.Key,
		Backend:  m.Backend,
		Threads:  m.Threads,
		Input:    m.Input,
		Output:   m.Output,
		Labels:   m.Labels,
		LoadedAt: m.LoadedAt,
	}
}

// ============================================================================
// Run-Handler
// ============================================================================

// RunImageHandler behandelt POST /api/run/image
func (s *Server) RunImageHandler(c *gin.Context) {
	var req api.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidRequest(err))
		return
	}

	f, err := s.it.RunOnImage(imageRequest(req), nil)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := f.Wait(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse(res))
}

// RunFrameHandler behandelt POST /api/run/frame
func (s *Server) RunFrameHandler(c *gin.Context) {
	var req api.FrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidRequest(err))
		return
	}

	f, err := s.it.RunOnFrame(bridge.FrameRequest{
		Planes:     vision.Planes{Y: req.Y, U: req.U, V: req.V},
		Width:      req.Width,
		Height:     req.Height,
		Rotation:   req.Rotation,
		Preprocess: preprocess(req.Preprocess),
		Top:        bridge.Top{NumResults: req.NumResults, Threshold: req.Threshold},
		Async:      req.Async,
	}, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := f.Wait(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse(res))
}

// RunBinaryHandler behandelt POST /api/run/binary
func (s *Server) RunBinaryHandler(c *gin.Context) {
	var req api.BinaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidRequest(err))
		return
	}

	f, err := s.it.RunOnBinary(bridge.BinaryRequest{
		Input: req.Input,
		Top:   bridge.Top{NumResults: req.NumResults, Threshold: req.Threshold},
		Async: req.Async,
	}, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := f.Wait(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse(res))
}

// RunImageToImageHandler behandelt POST /api/run/pix2pix, das Bild kommt als PNG zurueck
func (s *Server) RunImageToImageHandler(c *gin.Context) {
	var req api.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidRequest(err))
		return
	}

	f, err := s.it.RunImageToImage(imageRequest(req), nil)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := f.Wait(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Image.RGBA()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.ImageResponse{
		ID:       res.ID,
		Width:    res.Image.Width,
		Height:   res.Image.Height,
		Image:    buf.Bytes(),
		Duration: api.Duration{Duration: res.Duration},
	})
}

// ============================================================================
// Konvertierung
// ============================================================================

func imageRequest(req api.ImageRequest) bridge.ImageRequest {
	return bridge.ImageRequest{
		Path:       req.Path,
		Data:       req.Image,
		Preprocess: preprocess(req.Preprocess),
		Top:        bridge.Top{NumResults: req.NumResults, Threshold: req.Threshold},
		Async:      req.Async,
	}
}

// preprocess uebernimmt fehlende Flags aus der Umgebung
func preprocess(p api.Preprocess) bridge.Preprocess {
	out := bridge.Preprocess{
		Mean:           p.Mean,
		Std:            p.Std,
		Normalize:      envconfig.Normalize(),
		MaintainAspect: envconfig.MaintainAspect(),
	}
	if p.Normalize != nil {
		out.Normalize = *p.Normalize
	}
	if p.MaintainAspect != nil {
		out.MaintainAspect = *p.MaintainAspect
	}
	return out
}

func runResponse(res bridge.Result) api.RunResponse {
	return api.RunResponse{
		ID:           res.ID,
		Output:       res.Output,
		Recognitions: res.Recognitions,
		Duration:     api.Duration{Duration: res.Duration},
	}
}
