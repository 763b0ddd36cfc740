package dbstore

import "github.com/pixellobby/arcade/pkg/protocol"

// ActionError carries a closed-set reason code out of a store action so
// callers can report {ok:false, reason:...} without inspecting error text.
type ActionError struct {
	Reason protocol.Reason
}

func (e *ActionError) Error() string {
	return string(e.Reason)
}

// ReasonOf extracts the Reason from err if it is an *ActionError, else
// falls back to a generic DB_ERROR.
func ReasonOf(err error) protocol.Reason {
	if ae, ok := err.(*ActionError); ok {
		return ae.Reason
	}
	return protocol.ReasonDBError
}
