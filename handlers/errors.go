package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/classdeck/classdeck/services"
	"github.com/classdeck/classdeck/utils/response"
)

// WriteServiceError maps enrollment workflow errors onto HTTP statuses:
// missing entities 404, authorization failures 403, state conflicts 409,
// malformed input 400, delivery failures 502, everything else a logged 500.
func WriteServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrStudentNotFound),
		errors.Is(err, services.ErrAssignmentNotFound),
		errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrResourceNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotCourseOwner),
		errors.Is(err, services.ErrNotEnrolled):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrPendingRequestExists),
		errors.Is(err, services.ErrInvitationResolved):
		return response.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidResponse):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEmailDelivery):
		return response.BadGateway(c, err.Error())
	default:
		return response.Internal(c, err)
	}
}

// ParseID parses a numeric route parameter.
func ParseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
