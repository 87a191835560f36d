package rest

import "fmt"

// Verb is an HTTP method an endpoint can register.
type Verb int

const (
	GET Verb = iota + 1
	POST
	PATCH
	DELETE
)

var allVerbs = [...]Verb{GET, POST, PATCH, DELETE}

// Valid reports whether v is one of the declared verbs.
func (v Verb) Valid() bool {
	return v >= GET && v <= DELETE
}

func (v Verb) String() string {
	switch v {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PATCH:
		return "PATCH"
	case DELETE:
		return "DELETE"
	default:
		return fmt.Sprintf("Verb(%d)", int(v))
	}
}
