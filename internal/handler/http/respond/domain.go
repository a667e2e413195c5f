package respond

import (
	"errors"
	"net/http"

	"feedkeep/internal/domain/entity"
)

// DomainStatus maps the entity error taxonomy (§7 propagation policy)
// to the HTTP status code each type is documented to translate to.
// Unmatched errors fall back to 500.
func DomainStatus(err error) int {
	var (
		validationErr   *entity.ValidationError
		notFoundErr     *entity.NotFoundError
		conflictErr     *entity.ConflictError
		credentialsErr  *entity.InvalidCredentialsError
		passwordErr     *entity.InvalidPasswordError
		folderLimitErr  *entity.FolderLimitError
		circularRefErr  *entity.CircularReferenceError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.As(err, &credentialsErr):
		return http.StatusUnauthorized
	case errors.As(err, &passwordErr):
		return http.StatusBadRequest
	case errors.As(err, &folderLimitErr):
		return http.StatusBadRequest
	case errors.As(err, &circularRefErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DomainError writes err as a JSON error response, picking the status
// code from DomainStatus and routing through SafeError so a 500
// never leaks the underlying cause to the client.
func DomainError(w http.ResponseWriter, err error) {
	SafeError(w, DomainStatus(err), err)
}
