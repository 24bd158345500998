package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmerrifield20/linkboard/internal/runtime"
	"github.com/jmerrifield20/linkboard/pkg/board"
	"github.com/jmerrifield20/linkboard/pkg/txn"
	"go.uber.org/zap"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// validateRequest runs struct validation on obj and returns the failing
// fields, or nil.
func validateRequest(obj any) []FieldError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error(), Type: "invalid"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe), Type: fe.Tag()})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "invalid value"
	}
}

// bindJSON decodes and validates the request body into obj. On failure it
// writes a 400 response and returns false.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
		return false
	}
	if fields := validateRequest(obj); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": fields})
		return false
	}
	return true
}

// malformed reports whether err means the transaction could not be decoded
// or verified, as opposed to being rejected on its merits.
func malformed(err error) bool {
	for _, target := range []error{
		txn.ErrSignatureCount, txn.ErrInvalidSignature, txn.ErrNoAccounts,
		runtime.ErrUnknownProgram, runtime.ErrDuplicateAccount,
		runtime.ErrInvalidAirdrop, runtime.ErrAirdropLimit,
		board.ErrInstructionMissing, board.ErrInstructionUnknown, board.ErrInstructionDidNotDeserialize,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps processing errors to HTTP statuses: 400 for malformed or
// unverifiable requests, 409 for conflicts, 422 for rejections by the
// runtime or the program, 500 for everything else.
func statusFor(err error) int {
	var perr *board.Error
	switch {
	case malformed(err):
		return http.StatusBadRequest
	case errors.Is(err, runtime.ErrAlreadyProcessed), errors.Is(err, runtime.ErrAccountAlreadyInUse):
		return http.StatusConflict
	case errors.As(err, &perr), runtime.IsRejection(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeProcessError writes the response for a failed transaction or airdrop.
// Program errors carry their numeric code and name.
func writeProcessError(c *gin.Context, err error, logger *zap.Logger) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("process request", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var perr *board.Error
	if errors.As(err, &perr) {
		body["code"] = perr.Code
		body["name"] = perr.Name
	}
	c.JSON(status, body)
}
