// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"accounts_backend/platform/apperr"
	"accounts_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "Internal Server Error"

// Success sends a success envelope with the given status code. The payload
// fields are merged alongside the success flag, matching the wire contract
// {"success": true, ...payload}.
func Success(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for key, value := range payload {
		body[key] = value
	}
	c.JSON(status, body)
}

// OK sends a 200 success envelope.
func OK(c *gin.Context, payload gin.H) {
	Success(c, http.StatusOK, payload)
}

// Created sends a 201 success envelope.
func Created(c *gin.Context, payload gin.H) {
	Success(c, http.StatusCreated, payload)
}

// Error sends an error envelope {"success": false, "message": ...}.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// ValidationFailed sends a 400 error envelope carrying the full list of
// field failures.
func ValidationFailed(c *gin.Context, errs []validator.FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  errs,
	})
}

// HandleError maps domain errors to HTTP responses. Typed *apperr.Error
// values use their Kind for the status code; anything untyped is treated as
// an internal failure and its detail is suppressed from the client.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	domainErr, ok := err.(*apperr.Error)
	if !ok {
		Error(c, http.StatusInternalServerError, internalErrorMessage)
		return true
	}

	status := domainErr.HTTPStatus()
	if status == http.StatusInternalServerError {
		Error(c, status, internalErrorMessage)
		return true
	}

	if domainErr.Details != nil {
		c.JSON(status, gin.H{
			"success": false,
			"message": domainErr.Message,
			"errors":  domainErr.Details,
		})
		return true
	}

	Error(c, status, domainErr.Message)
	return true
}
