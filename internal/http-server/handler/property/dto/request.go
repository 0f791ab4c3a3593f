package dto

type CreatePropertyRequest struct {
	Title       string `form:"title" validate:"required,min=3,max=200"`
	Description string `form:"description" validate:"max=5000"`
	Location    string `form:"location" validate:"required,min=2,max=200"`
	Type        string `form:"type" validate:"required,oneof=Bedsitter 'Single Room' 'One bedroom' 'Two bedroom' 'Three bedroom' 'Four bedroom' 'Five bedroom' 'Six bedroom'"`
	Price       int64  `form:"price" validate:"required,gt=0"`
	OwnerName   string `form:"owner_name" validate:"required,min=2,max=100"`
	OwnerPhone  string `form:"owner_phone" validate:"required,min=7,max=15"`
}

type SearchRequest struct {
	Location   string `form:"location"`
	Type       string `form:"type"`
	PriceRange string `form:"price_range" validate:"omitempty,oneof=1-5k 5-10k 10-20k 20k+"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int    `form:"offset" validate:"omitempty,min=0"`
}

type GetPhotoRequest struct {
	ID      string `uri:"id" binding:"required"`
	Variant string `form:"variant"`
}
