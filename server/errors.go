// MODUL: errors
// ZWECK: Bridge-Fehler auf HTTP-Status und JSON-Koerper abbilden
// INPUT: Fehler aus bridge oder aus dem Request-Binding
// OUTPUT: {"code","message"} Responses
// NEBENEFFEKTE: HTTP-Responses schreiben
// ABHAENGIGKEITEN: gin-gonic/gin, bridge, api
// HINWEISE: Unbekannte Fehler landen als INFERENCE_FAILED mit 500
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tflitebridge/tflite/api"
	"github.com/tflitebridge/tflite/bridge"
)

// statusCodes mappt Bridge-Codes auf HTTP-Status
var statusCodes = map[bridge.Code]int{
	bridge.CodeBusy:           http.StatusConflict,
	bridge.CodeIO:             http.StatusBadRequest,
	bridge.CodeInvalidRequest: http.StatusBadRequest,
	bridge.CodeShapeMismatch:  http.StatusUnprocessableEntity,
	bridge.CodeModelNotLoaded: http.StatusServiceUnavailable,
}

// statusOf gibt den HTTP-Status fuer einen Code zurueck
func statusOf(code bridge.Code) int {
	if status, ok := statusCodes[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError schreibt err als JSON Response und bricht die Kette ab.
func writeError(c *gin.Context, err error) {
	var e *bridge.Error
	if !errors.As(bridge.AsError(err), &e) {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.AbortWithStatusJSON(statusOf(e.Code), api.ErrorResponse{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// invalidRequest markiert Binding-Fehler als INVALID_REQUEST
func invalidRequest(err error) error {
	return fmt.Errorf("%w: %v", bridge.ErrInvalidRequest, err)
}
