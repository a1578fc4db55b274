package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pratik-mahalle/dialekt/internal/api/middleware"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/utils"
	"github.com/pratik-mahalle/dialekt/internal/pkg/validator"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 << 10

// decodeJSON reads a bounded JSON body into dst and validates it
func decodeJSON(w http.ResponseWriter, r *http.Request, val *validator.Validator, dst interface{}) *errors.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err == io.EOF {
			return errors.BadRequest("Request body is required")
		}
		return errors.BadRequest("Invalid request body")
	}
	if verrs := val.Validate(dst); len(verrs) > 0 {
		return errors.ValidationError("Validation failed", verrs)
	}
	return nil
}

// requireIdentity returns the verified caller or writes a 401
func requireIdentity(w http.ResponseWriter, r *http.Request) (profile.Identity, bool) {
	id, ok := middleware.GetIdentity(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return profile.Identity{}, false
	}
	return id, true
}

// writeServiceError maps a service error onto the response. Server side
// failures are logged with their cause; client errors only at debug level.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	appErr := errors.FromError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(err).Error(msg)
	} else {
		log.WithFields(map[string]interface{}{
			"code":   appErr.Code,
			"status": appErr.StatusCode,
		}).Debug(msg)
	}

	utils.WriteError(w, appErr)
}
