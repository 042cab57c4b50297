package util

import (
	"errors"
	"net/http"
)

var (
	ErrMissingToken            = errors.New("Token d'authentification requis")
	ErrInvalidToken            = errors.New("Token invalide")
	ErrTokenExpired            = errors.New("Token expiré")
	ErrUserNotFound            = errors.New("Utilisateur non trouvé")
	ErrAccountDisabled         = errors.New("Compte désactivé")
	ErrInsufficientPermissions = errors.New("Permissions insuffisantes")
	ErrAdminRequired           = errors.New("Accès administrateur requis")
	ErrDuplicateUnlock         = errors.New("Succès déjà débloqué")
	ErrAlreadyCompleted        = errors.New("Leçon déjà complétée")
	ErrValidationFailed        = errors.New("Données invalides")
	ErrDatabaseUnavailable     = errors.New("Service temporairement indisponible")

	ErrLessonNotFound      = errors.New("Leçon non trouvée")
	ErrQuizNotFound        = errors.New("Quiz non trouvé")
	ErrAchievementNotFound = errors.New("Succès non trouvé")
	ErrAdminNotFound       = errors.New("Administrateur non trouvé")
	ErrAlreadyAdmin        = errors.New("Cet utilisateur est déjà administrateur")
	ErrInvalidCredentials  = errors.New("Email ou mot de passe incorrect")
	ErrEmailRegistered     = errors.New("Cet email est déjà utilisé")
)

// 错误码，出现在响应的 error.code 字段
const (
	CodeMissingToken    = "MISSING_TOKEN"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeAccountDisabled = "ACCOUNT_DISABLED"
	CodeForbidden       = "INSUFFICIENT_PERMISSIONS"
	CodeAdminRequired   = "ADMIN_REQUIRED"
	CodeDuplicate       = "DUPLICATE_ENTRY"
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeDatabase        = "DATABASE_UNAVAILABLE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
)

type errorKind struct {
	err    error
	status int
	code   string
}

var errorKinds = []errorKind{
	{ErrMissingToken, http.StatusUnauthorized, CodeMissingToken},
	{ErrInvalidToken, http.StatusUnauthorized, CodeInvalidToken},
	{ErrTokenExpired, http.StatusUnauthorized, CodeTokenExpired},
	{ErrUserNotFound, http.StatusUnauthorized, CodeUserNotFound},
	{ErrAccountDisabled, http.StatusUnauthorized, CodeAccountDisabled},
	{ErrAdminRequired, http.StatusUnauthorized, CodeAdminRequired},
	{ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidToken},
	{ErrInsufficientPermissions, http.StatusForbidden, CodeForbidden},
	{ErrDuplicateUnlock, http.StatusConflict, CodeDuplicate},
	{ErrAlreadyCompleted, http.StatusConflict, CodeDuplicate},
	{ErrAlreadyAdmin, http.StatusConflict, CodeDuplicate},
	{ErrEmailRegistered, http.StatusConflict, CodeDuplicate},
	{ErrValidationFailed, http.StatusBadRequest, CodeValidation},
	{ErrLessonNotFound, http.StatusNotFound, CodeNotFound},
	{ErrQuizNotFound, http.StatusNotFound, CodeNotFound},
	{ErrAchievementNotFound, http.StatusNotFound, CodeNotFound},
	{ErrAdminNotFound, http.StatusNotFound, CodeNotFound},
	{ErrDatabaseUnavailable, http.StatusServiceUnavailable, CodeDatabase},
}

func lookupKind(err error) (errorKind, bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k, true
		}
	}
	return errorKind{}, false
}

// StatusFor maps an error to its HTTP status; unknown errors are 500.
func StatusFor(err error) int {
	if k, ok := lookupKind(err); ok {
		return k.status
	}
	return http.StatusInternalServerError
}

// CodeFor returns the machine-readable code for err.
func CodeFor(err error) string {
	if k, ok := lookupKind(err); ok {
		return k.code
	}
	return CodeInternal
}

// PublicMessage is the message safe to show a client. For a known kind it is
// the sentinel text, never the wrapped detail.
func PublicMessage(err error) string {
	if k, ok := lookupKind(err); ok {
		return k.err.Error()
	}
	return "Erreur interne du serveur"
}
