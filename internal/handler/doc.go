// Package handler provides HTTP request handlers for the CRC portal API.
//
// Each handler wraps a narrow service interface declared next to it and
// registers its own routes on a *http.ServeMux:
//
//	classes := handler.NewClassHandler(classService)
//	classes.RegisterRoutes(mux)
//
// Successful responses use WriteData and WriteCollection. Errors from the
// service layer go through MapServiceError and are written as RFC 9457
// Problem Details. Roster responses carry the roster version as an ETag,
// and PUT /v1/classes/{classId}/students accepts it back via If-Match.
package handler
