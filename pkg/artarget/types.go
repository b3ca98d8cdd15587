package artarget

import "time"

// AssetKind is the domain type for the two classes of uploaded files.
type AssetKind string

// Asset kind constants (typed).
const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// SortOrder selects the creation-time ordering of a listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Target represents a managed (image, video) pair, the unit of AR enrollment.
//
// A target always carries exactly one image key and one video key, both
// resolvable through the asset store. The Active flag controls eligibility
// for marker compilation; it never soft-deletes the underlying files.
type Target struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageKey    string    `json:"image_key"`
	VideoKey    string    `json:"video_key"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
