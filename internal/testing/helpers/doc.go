// Package helpers provides test utility functions for end-to-end API tests.
//
// # Requests
//
// Build and serve requests against a full handler stack:
//
//	rr := helpers.NewRequest(t, http.MethodPut, "/v1/classes/"+classID+"/students").
//		WithBody(req).
//		WithIdempotencyKey("k1").
//		Do(api)
//
// # Assertions
//
//	helpers.AssertStatus(t, rr, http.StatusOK)
//	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeMembership)
//	helpers.AssertValidationError(t, rr, "student_ids")
//
// # Database checks
//
//	classID := helpers.StoredClassID(t, db, studentID)
//	helpers.AssertRecordNotExists(t, db, "crc_class:abc")
package helpers
