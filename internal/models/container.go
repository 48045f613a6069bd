package models

// Container represents a single board column. Columns are ordered by Index
// within their owner's board; Index values are advisory ordering hints, not
// enforced-unique keys.
type Container struct {
	ID          string `json:"id" db:"id"`
	Header      string `json:"header" db:"header"`
	HeaderColor string `json:"headerColor" db:"header_color"`
	UserID      string `json:"-" db:"user_id"`
	Index       int    `json:"index" db:"position"`
}

// ContainerPatch is the allow-list of container fields a client may update.
// Nil fields are left untouched.
type ContainerPatch struct {
	Header      *string `json:"header"`
	HeaderColor *string `json:"headerColor"`
	Index       *int    `json:"index"`
}

// IndexUpdate is one entry of a batched reorder request.
type IndexUpdate struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}
