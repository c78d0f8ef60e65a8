package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PartCondition grades a spare part.
type PartCondition string

const (
	PartNew         PartCondition = "new"
	PartUsed        PartCondition = "used"
	PartRefurbished PartCondition = "refurbished"
)

// Valid reports whether c is a known condition.
func (c PartCondition) Valid() bool {
	switch c {
	case PartNew, PartUsed, PartRefurbished:
		return true
	}
	return false
}

// Part is a spare-part listing. YearFrom/YearTo bound the compatible
// model years when known.
type Part struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AdminID     primitive.ObjectID `bson:"adminId" json:"adminId"`
	Name        string             `bson:"name" json:"name"`
	Brand       string             `bson:"brand" json:"brand"`
	Model       string             `bson:"model" json:"model"`
	YearFrom    *int               `bson:"yearFrom,omitempty" json:"yearFrom,omitempty"`
	YearTo      *int               `bson:"yearTo,omitempty" json:"yearTo,omitempty"`
	Category    string             `bson:"category" json:"category"`
	Condition   PartCondition      `bson:"condition" json:"condition"`
	Price       float64            `bson:"price" json:"price"`
	Currency    string             `bson:"currency" json:"currency"`
	Negotiable  bool               `bson:"negotiable" json:"negotiable"`
	City        string             `bson:"city" json:"city"`
	Description string             `bson:"description" json:"description"`
	Photos      []string           `bson:"photos" json:"photos"`
	Status      ListingStatus      `bson:"status" json:"status"`
	Views       int64              `bson:"views" json:"views"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MissingFields lists the required fields that are empty or zero.
func (p *Part) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"name", p.Name == ""},
		{"brand", p.Brand == ""},
		{"model", p.Model == ""},
		{"category", p.Category == ""},
		{"condition", p.Condition == ""},
		{"price", p.Price == 0},
		{"currency", p.Currency == ""},
		{"city", p.City == ""},
		{"description", p.Description == ""},
	} {
		if f.empty {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// PartFilter narrows a part listing. Brand and Model match as
// case-insensitive substrings; other fields match exactly.
type PartFilter struct {
	Status    ListingStatus
	Category  string
	Brand     string
	Model     string
	Condition PartCondition
}

// PartPatch is a partial update; nil fields are left unchanged.
type PartPatch struct {
	Name        *string        `json:"name"`
	Brand       *string        `json:"brand"`
	Model       *string        `json:"model"`
	YearFrom    *int           `json:"yearFrom"`
	YearTo      *int           `json:"yearTo"`
	Category    *string        `json:"category"`
	Condition   *PartCondition `json:"condition"`
	Price       *float64       `json:"price"`
	Currency    *string        `json:"currency"`
	Negotiable  *bool          `json:"negotiable"`
	City        *string        `json:"city"`
	Description *string        `json:"description"`
	Photos      []string       `json:"photos"`
	Status      *ListingStatus `json:"status"`
}

// Apply copies the set fields of p onto part.
func (p PartPatch) Apply(part *Part) {
	setString(&part.Name, p.Name)
	setString(&part.Brand, p.Brand)
	setString(&part.Model, p.Model)
	if p.YearFrom != nil {
		part.YearFrom = p.YearFrom
	}
	if p.YearTo != nil {
		part.YearTo = p.YearTo
	}
	setString(&part.Category, p.Category)
	if p.Condition != nil {
		part.Condition = *p.Condition
	}
	setFloat(&part.Price, p.Price)
	setString(&part.Currency, p.Currency)
	setBool(&part.Negotiable, p.Negotiable)
	setString(&part.City, p.City)
	setString(&part.Description, p.Description)
	if p.Photos != nil {
		part.Photos = p.Photos
	}
	if p.Status != nil {
		part.Status = *p.Status
	}
}
