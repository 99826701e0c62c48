package purchase

// Status is the outcome of the latest buy or restore activity.
type Status int

const (
	StatusNotStarted Status = iota
	StatusSucceeded
	StatusFailed
	StatusRestoreSucceeded
	StatusRestoreFailed
	StatusNoRestorablePurchases
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NotStarted"
	case StatusSucceeded:
		return "Succeeded"
	case StatusFailed:
		return "Failed"
	case StatusRestoreSucceeded:
		return "RestoreSucceeded"
	case StatusRestoreFailed:
		return "RestoreFailed"
	case StatusNoRestorablePurchases:
		return "NoRestorablePurchases"
	default:
		return "Unknown"
	}
}
