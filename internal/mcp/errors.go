// Package mcp exposes the skill service as Model Context Protocol tools and
// resources over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"

	skerrors "github.com/Aman-CERP/skillsmcp/internal/errors"
)

// Custom MCP error codes for skillsmcp.
const (
	// ErrCodeNotFound indicates a missing skill, sub-skill or file.
	ErrCodeNotFound = -32001

	// ErrCodeReadFailed indicates a skill file could not be read.
	ErrCodeReadFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts service errors to MCP errors. SkillError categories map
// to codes; anything else is internal.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var me *MCPError
	if errors.As(err, &me) {
		return me
	}

	var se *skerrors.SkillError
	if errors.As(err, &se) {
		return mapSkillError(se)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

func mapSkillError(se *skerrors.SkillError) *MCPError {
	message := se.Message
	if se.Suggestion != "" {
		message = fmt.Sprintf("%s %s", se.Message, se.Suggestion)
	}

	switch se.Category {
	case skerrors.CategoryNotFound:
		return &MCPError{Code: ErrCodeNotFound, Message: message}
	case skerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case skerrors.CategoryIO:
		return &MCPError{Code: ErrCodeReadFailed, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
