package artarget

import "io"

// Upload carries the bytes of a file supplied with a create or update
// request. Filename is only used for its extension; stored names are
// always generated.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// CreateTargetRequest contains parameters for creating a target. Both
// uploads are required.
type CreateTargetRequest struct {
	Name        string
	Description string
	Image       *Upload
	Video       *Upload
}

// UpdateTargetRequest contains parameters for a partial target update.
// Nil fields are left unchanged.
type UpdateTargetRequest struct {
	Name        *string
	Description *string
	Active      *bool
	Image       *Upload
	Video       *Upload
}
