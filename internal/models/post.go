package models

import "time"

type ListingType string

const (
	ListingBuy  ListingType = "buy"
	ListingRent ListingType = "rent"
)

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyLand      PropertyType = "land"
)

// Post is a property listing. Bedroom and Bathroom are plain counts.
type Post struct {
	ID         int          `json:"id" gorm:"primaryKey"`
	Title      string       `json:"title" gorm:"not null"`
	Price      int          `json:"price" gorm:"not null;index"`
	Images     []string     `json:"images" gorm:"serializer:json"`
	Address    string       `json:"address" gorm:"not null"`
	City       string       `json:"city" gorm:"not null;index"`
	Bedroom    int          `json:"bedroom"`
	Bathroom   int          `json:"bathroom"`
	Latitude   string       `json:"latitude"`
	Longitude  string       `json:"longitude"`
	Type       ListingType  `json:"type" gorm:"index"`
	Property   PropertyType `json:"property"`
	CreatedAt  time.Time    `json:"createdAt"`
	UserID     int          `json:"userId" gorm:"index;not null"`
	User       *User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	PostDetail *PostDetail  `json:"postDetail,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`

	// IsSaved is computed per requester.
	IsSaved bool `json:"isSaved" gorm:"-"`
}

type PostDetail struct {
	ID         int     `json:"id" gorm:"primaryKey"`
	Desc       string  `json:"desc" gorm:"column:description"`
	Utilities  *string `json:"utilities"`
	Pet        *string `json:"pet"`
	Income     *string `json:"income"`
	Size       *int    `json:"size"`
	School     *int    `json:"school"`
	Bus        *int    `json:"bus"`
	Restaurant *int    `json:"restaurant"`
	PostID     int     `json:"postId" gorm:"uniqueIndex;not null"`
}

// SavedPost is a user's bookmark of a listing.
type SavedPost struct {
	UserID    int       `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	PostID    int       `json:"postId" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"createdAt"`

	User *User `json:"-" gorm:"foreignKey:UserID"`
	Post *Post `json:"-" gorm:"foreignKey:PostID"`
}

// PostFilter narrows a listing query. Zero values mean "any".
type PostFilter struct {
	City     string       `validate:"max=100"`
	Type     ListingType  `validate:"omitempty,oneof=buy rent"`
	Property PropertyType `validate:"omitempty,oneof=apartment house condo land"`
	Bedroom  int          `validate:"gte=0"`
	Bathroom int          `validate:"gte=0"`
	MinPrice int          `validate:"gte=0"`
	MaxPrice int          `validate:"gte=0"`
}
