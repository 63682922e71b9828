package apperr

import "net/http"

// Kind is a stable, machine-readable error category. API clients dispatch on
// Kind, never on the message text.
type Kind string

const (
	KindValidation          Kind = "Validation"
	KindUnauthorized        Kind = "Unauthorized"
	KindNotAMember          Kind = "NotAMember"
	KindInsufficientRole    Kind = "InsufficientRole"
	KindAccessDenied        Kind = "AccessDenied"
	KindLastOwnerProtection Kind = "LastOwnerProtection"
	KindMemberNotFound      Kind = "MemberNotFound"
	KindUnknownUser         Kind = "UnknownUser"
	KindAllAlreadyMembers   Kind = "AllAlreadyMembers"
	KindInvalidRole         Kind = "InvalidRole"
	KindNameConflict        Kind = "NameConflict"
	KindEmailConflict       Kind = "EmailConflict"
	KindNotFound            Kind = "NotFound"
)

// Error is a structured application error carrying an HTTP status and a Kind.
type Error struct {
	Kind       Kind
	HTTPStatus int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, HTTPStatus: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, HTTPStatus: http.StatusUnauthorized, Message: msg}
}

func NotAMember() *Error {
	return &Error{Kind: KindNotAMember, HTTPStatus: http.StatusForbidden, Message: "you do not belong to this project"}
}

func InsufficientRole() *Error {
	return &Error{Kind: KindInsufficientRole, HTTPStatus: http.StatusForbidden, Message: "you do not have permission to manage members of this project"}
}

func AccessDenied() *Error {
	return &Error{Kind: KindAccessDenied, HTTPStatus: http.StatusForbidden, Message: "access denied"}
}

func LastOwnerProtection() *Error {
	return &Error{Kind: KindLastOwnerProtection, HTTPStatus: http.StatusConflict, Message: "cannot remove or demote the last owner of the project"}
}

func MemberNotFound() *Error {
	return &Error{Kind: KindMemberNotFound, HTTPStatus: http.StatusNotFound, Message: "user is not a member of this project"}
}

func UnknownUser() *Error {
	return &Error{Kind: KindUnknownUser, HTTPStatus: http.StatusNotFound, Message: "one or more users do not exist"}
}

func AllAlreadyMembers() *Error {
	return &Error{Kind: KindAllAlreadyMembers, HTTPStatus: http.StatusConflict, Message: "all given users are already members of this project"}
}

func InvalidRole(role string) *Error {
	return &Error{Kind: KindInvalidRole, HTTPStatus: http.StatusBadRequest, Message: "invalid role: " + role}
}

func NameConflict() *Error {
	return &Error{Kind: KindNameConflict, HTTPStatus: http.StatusConflict, Message: "a project with this name already exists"}
}

func EmailConflict() *Error {
	return &Error{Kind: KindEmailConflict, HTTPStatus: http.StatusConflict, Message: "an account with this email already exists"}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, HTTPStatus: http.StatusNotFound, Message: what + " not found"}
}
