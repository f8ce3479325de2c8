package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/depthnode/internal/camera"
)

// mapCameraError converts engine errors to HTTP errors. The error kind is
// echoed in the problem detail so clients can branch on it.
func mapCameraError(err error) error {
	var camErr *camera.Error
	if !errors.As(err, &camErr) {
		return huma.Error500InternalServerError("internal server error", err)
	}

	msg := string(camErr.Kind)
	switch camErr.Kind {
	case camera.KindNotFound, camera.KindOutOfRange:
		return huma.Error404NotFound(msg, err)
	case camera.KindNotReady, camera.KindNotEnabled, camera.KindNoStreamsEnabled:
		return huma.Error409Conflict(msg, err)
	case camera.KindUnsupported, camera.KindUnsupportedMode, camera.KindUnsupportedPair, camera.KindOutOfDomain:
		return huma.Error422UnprocessableEntity(msg, err)
	case camera.KindTransport:
		return huma.Error502BadGateway(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
