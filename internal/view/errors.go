package view

import "github.com/noah-isme/courseforge-portal/internal/apperr"

// ErrorMessage returns the backend message for err, else a localized fallback for its kind.
func ErrorMessage(err error, catalog Catalog) string {
	if err == nil {
		return ""
	}

	fallback := catalog.Text(MsgRequestFailed)
	switch apperr.KindOf(err) {
	case apperr.KindNetwork:
		return catalog.Text(MsgNetworkFailed)
	case apperr.KindNoSession, apperr.KindUnauthorized:
		fallback = catalog.Text(MsgSessionRequired)
	case apperr.KindInvalidCredentials:
		fallback = catalog.Text(MsgInvalidCredentials)
	case apperr.KindDuplicateEmail:
		fallback = catalog.Text(MsgDuplicateEmail)
	}
	return apperr.MessageOf(err, fallback)
}
