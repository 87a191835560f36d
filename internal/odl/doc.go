// Package odl is an HTTP client for the ODL Video Service REST API.
//
// # Usage
//
//	client, err := odl.NewClient("https://video.example.edu",
//		odl.WithSessionID(sessionID),
//		odl.WithCSRFToken(csrfToken),
//	)
//	if err != nil {
//		return err
//	}
//	page, err := client.GetCollections(ctx, 1)
//
// # Endpoints
//
//   - GET /api/v0/collections/?page=N, POST /api/v0/collections/
//   - GET, PATCH /api/v0/collections/:key/
//   - GET, PATCH, DELETE /api/v0/videos/:key/
//   - GET /api/v0/videos/:key/analytics/
//   - POST /api/v0/upload_subtitles/ (multipart)
//   - DELETE /api/v0/subtitles/:id/
//   - GET /api/v0/edx-endpoints/, /api/v0/users/, /api/v0/potential-owners/
//
// # Requests
//
// Every request carries Accept: application/json, the odlv User-Agent and
// the sessionid cookie when one is configured. Unsafe methods also send the
// X-CSRFToken header. Requests time out after 15 seconds unless the caller's
// context ends first.
//
// # Errors
//
// Any status of 300 or above becomes an *APIError carrying the method, path,
// status and decoded JSON body:
//
//	var apiErr *odl.APIError
//	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
//		for field, msgs := range apiErr.FieldErrors() { ... }
//	}
//
// Transport and decoding failures are wrapped with fmt.Errorf.
//
// The Client is safe for concurrent use. API is the interface the resource
// layer depends on so tests can substitute their own implementation.
package odl
