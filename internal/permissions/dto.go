package permissions

// RegisterPermissionDTO creates or refreshes a catalogue entry.
type RegisterPermissionDTO struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AppName     string `json:"app_name,omitempty"`
}

// GrantDTO grants a key to a department.
type GrantDTO struct {
	Key string `json:"key"`
}

// OverrideDTO sets an explicit per-employee decision.
type OverrideDTO struct {
	Key     string `json:"key"`
	Granted bool   `json:"granted"`
}

// UserCanResponse is the outcome of a single-key check.
type UserCanResponse struct {
	Key     string `json:"key"`
	Granted bool   `json:"granted"`
}

// GrantedResponse lists every key the caller holds.
type GrantedResponse struct {
	Permissions []string `json:"permissions"`
}
