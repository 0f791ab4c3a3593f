package domain

import "time"

type Property struct {
	ID          string
	Title       string
	Description string
	Location    string
	Type        PropertyType
	Price       int64
	Available   bool
	OwnerName   string
	OwnerPhone  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PropertyPhoto struct {
	ID               string
	PropertyID       string
	OriginalFilename string
	OriginalPath     string
	OriginalSize     int64
	Fingerprint      string
	DesktopPath      string
	MobilePath       string
	WebPPath         string
	Warning          string
	Status           PhotoStatus
	CreatedAt        time.Time
}

type PropertyType string

const (
	TypeBedsitter    PropertyType = "Bedsitter"
	TypeSingleRoom   PropertyType = "Single Room"
	TypeOneBedroom   PropertyType = "One bedroom"
	TypeTwoBedroom   PropertyType = "Two bedroom"
	TypeThreeBedroom PropertyType = "Three bedroom"
	TypeFourBedroom  PropertyType = "Four bedroom"
	TypeFiveBedroom  PropertyType = "Five bedroom"
	TypeSixBedroom   PropertyType = "Six bedroom"
)

type PhotoStatus string

const (
	PhotoStatusReady      PhotoStatus = "ready"
	PhotoStatusProcessing PhotoStatus = "processing"
	PhotoStatusFailed     PhotoStatus = "failed"
	PhotoStatusDeleted    PhotoStatus = "deleted"
)

// PriceRange names map to fixed price filters, mirroring the search form.
const (
	PriceRange1to5k   = "1-5k"
	PriceRange5to10k  = "5-10k"
	PriceRange10to20k = "10-20k"
	PriceRange20kPlus = "20k+"
)

type SearchFilter struct {
	Location   string
	Type       string
	PriceRange string
	Limit      int
	Offset     int
}

type Stats struct {
	TotalProperties int
	Available       int
	TotalPhotos     int
}
