package types

// ClientLabel is an operator-assigned categorical tag on a client, scoped
// to the user who assigned it.
type ClientLabel struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// SystemLabelOwner is the reserved owner of labels assigned by the fleet
// backend itself. Fleet aggregation restricts its per-label breakdown to
// labels with this owner.
const SystemLabelOwner = "fleetstore"
