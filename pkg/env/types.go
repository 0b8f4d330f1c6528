// Package env provides the identity and the common options of a
// controller process.
package env

// Ref is a reference to a controller.
type Ref struct {
	// Type is the controller type, e.g. "evtherm".
	Type string
	// ID is the unique ID of the device.
	ID string
}

// Name retrieves the name from ref.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates Ref is valid.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// Meta provides metadata of a controller, published retained.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Info provides information of a controller.
type Info struct {
	Ref  Ref
	Meta Meta
}
