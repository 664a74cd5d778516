package util

var (
	NotFoundError       = NewError("not found")
	WrongTypeError      = NewError("wrong type")
	InvalidVersionError = NewError("invalid version")
)
