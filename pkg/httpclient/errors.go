package httpclient

import "fmt"

// BadResponseError is returned by a Client when the server answered with a
// client or server error status.
type BadResponseError struct {
	Method   string
	URL      string
	Response Response
}

func (e *BadResponseError) Error() string {
	return fmt.Sprintf("%s %s: bad response status %d", e.Method, e.URL, e.Response.StatusCode())
}

// IsBadStatus reports whether code is a 4xx or 5xx status.
func IsBadStatus(code int) bool {
	return code >= 400 && code <= 599
}
