package constants

type ContextKey string

const (
	MinImages      = 1
	MaxUploadBytes = 10 << 20
)

const (
	RouteAPIGames = "/api/games"
	RouteAPIUser  = "/api/user"
	RouteAPIAuth  = "/api/auth"

	RouteUpload    = "/api/uploads"
	RouteGame      = "/:gameId"
	RouteFlip      = "/:gameId/card/:cardId/flip"
	RouteReset     = "/:gameId/reset"
	RouteUserGames = "/games"

	RouteRegister = "/register"
	RouteLogin    = "/login"
	RouteLogout   = "/logout"
	RouteProfile  = "/profile"

	RouteHealthz = "/healthz"
	RouteUploads = "/uploads"
)

const (
	ErrorCodeInvalidInput    = "invalid_input"
	ErrorCodeGameNotFound    = "game_not_found"
	ErrorCodeCardNotFound    = "card_not_found"
	ErrorCodeAlreadyMatched  = "already_matched"
	ErrorCodeRoundInProgress = "round_in_progress"
	ErrorCodeConflict        = "conflict"
	ErrorCodePersistence     = "persistence_error"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeForbidden       = "forbidden"
	ErrorCodeEmailTaken      = "email_taken"
	ErrorCodeBadCredentials  = "bad_credentials"
)

const (
	RequestIDKey ContextKey = "request_id"
)
