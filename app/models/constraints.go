package models

// Constraints carries the hierarchical context parsed out of the input text.
// Empty string means the level was not constrained. Values are normalized.
type Constraints struct {
	State   string `json:"state,omitempty"`
	County  string `json:"county,omitempty"`
	Payam   string `json:"payam,omitempty"`
	Boma    string `json:"boma,omitempty"`
	Village string `json:"village,omitempty"`
}

// Empty reports whether no constraint field is set.
func (c Constraints) Empty() bool {
	return c.State == "" && c.County == "" && c.Payam == "" && c.Boma == "" && c.Village == ""
}

// Get returns the named constraint, "" for unknown fields.
func (c Constraints) Get(field string) string {
	switch field {
	case "state":
		return c.State
	case "county":
		return c.County
	case "payam":
		return c.Payam
	case "boma":
		return c.Boma
	case "village":
		return c.Village
	}
	return ""
}

// Set assigns the named constraint. Unknown fields are ignored.
func (c *Constraints) Set(field, value string) {
	switch field {
	case "state":
		c.State = value
	case "county":
		c.County = value
	case "payam":
		c.Payam = value
	case "boma":
		c.Boma = value
	case "village":
		c.Village = value
	}
}

// MergeMissing fills empty fields of c from other, keeping parsed values.
// Used to fold extractor output under deterministic parsing.
func (c *Constraints) MergeMissing(other Constraints) {
	if c.State == "" {
		c.State = other.State
	}
	if c.County == "" {
		c.County = other.County
	}
	if c.Payam == "" {
		c.Payam = other.Payam
	}
	if c.Boma == "" {
		c.Boma = other.Boma
	}
	if c.Village == "" {
		c.Village = other.Village
	}
}
