package wizard

import "errors"

var (
	ErrEmptyCatalog         = errors.New("no services available")
	ErrNoAvailability       = errors.New("no slots available for the selected date")
	ErrIncompleteContact    = errors.New("name and phone are required")
	ErrInvalidSlotSelection = errors.New("time is not an available slot")
	ErrBookingFailed        = errors.New("could not complete booking, please try again")

	ErrUnknownService = errors.New("service not found")
	ErrOutsideWindow  = errors.New("date is outside the booking window")
	ErrWrongStep      = errors.New("action not allowed at this step")
)
