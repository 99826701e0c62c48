package catalog

// RequestStatus is the outcome of the latest product request.
type RequestStatus int

const (
	RequestNotStarted RequestStatus = iota
	RequestFound
	RequestIdentifiersNotFound
	RequestFailed
	RequestMixedResponse
)

func (s RequestStatus) String() string {
	switch s {
	case RequestNotStarted:
		return "NotStarted"
	case RequestFound:
		return "Found"
	case RequestIdentifiersNotFound:
		return "IdentifiersNotFound"
	case RequestFailed:
		return "Failed"
	case RequestMixedResponse:
		return "MixedResponse"
	default:
		return "Unknown"
	}
}
