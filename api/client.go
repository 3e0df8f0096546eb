// Package api implementiert den Go-Client fuer den HTTP-Server der Bridge.
// Die Methoden von [Client] entsprechen den Routen unter /api.
//
// MODUL: client
// ZWECK: HTTP-Client mit JSON-Kodierung und Fehler-Auswertung
// INPUT: Basis-URL (TFLITE_HOST), Request-Typen aus types.go
// OUTPUT: Response-Typen oder StatusError
// NEBENEFFEKTE: HTTP-Anfragen
// ABHAENGIGKEITEN: envconfig, net/http (stdlib)
// HINWEISE: Fehler-Koerper haben die Form {"code","message"}
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"

	"github.com/tflitebridge/tflite/envconfig"
)

// Client kapselt die Verbindung zum Bridge-Server.
// Neue Clients entstehen ueber [ClientFromEnvironment] oder [NewClient].
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	err := json.Unmarshal(body, &apiError)
	if err != nil {
		// Ganzer Koerper als Nachricht wenn er kein JSON ist
		apiError.ErrorMessage = string(body)
	}

	return apiError
}

// ClientFromEnvironment erstellt einen Client fuer TFLITE_HOST.
//
//	<scheme>://<host>:<port>
//
// Ohne Variable wird http://127.0.0.1:8765 verwendet.
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: envconfig.Host(),
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	var reqBody io.Reader
	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), reqBody)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", fmt.Sprintf("tflite-bridge (%s %s) Go/%s", runtime.GOARCH, runtime.GOOS, runtime.Version()))

	respObj, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer respObj.Body.Close()

	respBody, err := io.ReadAll(respObj.Body)
	if err != nil {
		return err
	}

	if err := checkError(respObj, respBody); err != nil {
		return err
	}

	if len(respBody) > 0 && respData != nil {
		if err := json.Unmarshal(respBody, respData); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// API-Methoden
// ============================================================================

// Heartbeat prueft ob der Server laeuft.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/", nil, nil)
}

// Status gibt den Zustand des Interpreters zurueck.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Load laedt ein Modell im Server.
func (c *Client) Load(ctx context.Context, req *LoadRequest) (*LoadResponse, error) {
	var resp LoadResponse
	if err := c.do(ctx, http.MethodPost, "/api/load", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunImage fuehrt das Modell auf einem Bild aus.
func (c *Client) RunImage(ctx context.Context, req *ImageRequest) (*RunResponse, error) {
	return c.run(ctx, "/api/run/image", req)
}

// RunFrame fuehrt das Modell auf einem Kamera-Frame aus.
func (c *Client) RunFrame(ctx context.Context, req *FrameRequest) (*RunResponse, error) {
	return c.run(ctx, "/api/run/frame", req)
}

// RunBinary fuehrt das Modell auf kodierten Eingabe-Bytes aus.
func (c *Client) RunBinary(ctx context.Context, req *BinaryRequest) (*RunResponse, error) {
	return c.run(ctx, "/api/run/binary", req)
}

// RunImageToImage fuehrt ein Bild-zu-Bild Modell aus.
func (c *Client) RunImageToImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error) {
	var resp ImageResponse
	if err := c.do(ctx, http.MethodPost, "/api/run/pix2pix", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) run(ctx context.Context, path string, req any) (*RunResponse, error) {
	var resp RunResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
