package inference

// ErrorKind classifies a failed call against the remote colorization
// service.
type ErrorKind string

const (
	// KindConnectivity means the request never reached the server:
	// refused connections, DNS failures and the CORS-style
	// misconfigurations that present the same way to a browser client.
	KindConnectivity ErrorKind = "connectivity"
	// KindServer means the server answered with a non-success status or
	// an error payload.
	KindServer ErrorKind = "server"
	// KindOther covers timeouts and unclassified client-side failures.
	KindOther ErrorKind = "other"
	// KindDecode means the server claimed success but returned no usable
	// image.
	KindDecode ErrorKind = "decode"
)

type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// Guidance reports whether the error warrants pointing the user at
// service reachability rather than their own input.
func (e *Error) Guidance() bool {
	return e.Kind == KindConnectivity
}
