package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Car is a vehicle listing. Photos hold image references (canonical URLs
// once committed).
type Car struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AdminID      primitive.ObjectID `bson:"adminId" json:"adminId"`
	Brand        string             `bson:"brand" json:"brand"`
	Model        string             `bson:"model" json:"model"`
	Generation   string             `bson:"generation,omitempty" json:"generation,omitempty"`
	Year         int                `bson:"year" json:"year"`
	Mileage      int                `bson:"mileage" json:"mileage"`
	Transmission string             `bson:"transmission" json:"transmission"`
	Fuel         string             `bson:"fuel" json:"fuel"`
	Drive        string             `bson:"drive" json:"drive"`
	BodyType     string             `bson:"bodyType" json:"bodyType"`
	Color        string             `bson:"color" json:"color"`
	Power        int                `bson:"power" json:"power"` // hp
	EngineVolume float64            `bson:"engineVolume" json:"engineVolume"`
	EuroStandard string             `bson:"euroStandard" json:"euroStandard"`
	VIN          string             `bson:"vin" json:"vin"` // unique
	Condition    string             `bson:"condition" json:"condition"`
	Customs      bool               `bson:"customs" json:"customs"`
	VAT          bool               `bson:"vat" json:"vat"`
	Owners       int                `bson:"owners" json:"owners"`
	Price        float64            `bson:"price" json:"price"`
	Currency     string             `bson:"currency" json:"currency"`
	Negotiable   bool               `bson:"negotiable" json:"negotiable"`
	City         string             `bson:"city" json:"city"`
	Description  string             `bson:"description" json:"description"`
	Photos       []string           `bson:"photos" json:"photos"`
	Status       ListingStatus      `bson:"status" json:"status"`
	Views        int64              `bson:"views" json:"views"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MissingFields lists the required fields that are empty or zero.
func (c *Car) MissingFields() []string {
	var missing []string
	check := func(name string, empty bool) {
		if empty {
			missing = append(missing, name)
		}
	}
	check("brand", c.Brand == "")
	check("model", c.Model == "")
	check("year", c.Year == 0)
	check("mileage", c.Mileage == 0)
	check("transmission", c.Transmission == "")
	check("fuel", c.Fuel == "")
	check("drive", c.Drive == "")
	check("bodyType", c.BodyType == "")
	check("color", c.Color == "")
	check("power", c.Power == 0)
	check("engineVolume", c.EngineVolume == 0)
	check("euroStandard", c.EuroStandard == "")
	check("vin", c.VIN == "")
	check("condition", c.Condition == "")
	check("price", c.Price == 0)
	check("currency", c.Currency == "")
	check("city", c.City == "")
	check("description", c.Description == "")
	return missing
}

// CarFilter narrows a car listing. Empty fields match everything.
type CarFilter struct {
	Status ListingStatus
	Brand  string // case-insensitive substring
}

// CarPatch is a partial update; nil fields are left unchanged.
type CarPatch struct {
	Brand        *string        `json:"brand"`
	Model        *string        `json:"model"`
	Generation   *string        `json:"generation"`
	Year         *int           `json:"year"`
	Mileage      *int           `json:"mileage"`
	Transmission *string        `json:"transmission"`
	Fuel         *string        `json:"fuel"`
	Drive        *string        `json:"drive"`
	BodyType     *string        `json:"bodyType"`
	Color        *string        `json:"color"`
	Power        *int           `json:"power"`
	EngineVolume *float64       `json:"engineVolume"`
	EuroStandard *string        `json:"euroStandard"`
	VIN          *string        `json:"vin"`
	Condition    *string        `json:"condition"`
	Customs      *bool          `json:"customs"`
	VAT          *bool          `json:"vat"`
	Owners       *int           `json:"owners"`
	Price        *float64       `json:"price"`
	Currency     *string        `json:"currency"`
	Negotiable   *bool          `json:"negotiable"`
	City         *string        `json:"city"`
	Description  *string        `json:"description"`
	Photos       []string       `json:"photos"`
	Status       *ListingStatus `json:"status"`
}

// Apply copies the set fields of p onto c.
func (p CarPatch) Apply(c *Car) {
	setString(&c.Brand, p.Brand)
	setString(&c.Model, p.Model)
	setString(&c.Generation, p.Generation)
	setInt(&c.Year, p.Year)
	setInt(&c.Mileage, p.Mileage)
	setString(&c.Transmission, p.Transmission)
	setString(&c.Fuel, p.Fuel)
	setString(&c.Drive, p.Drive)
	setString(&c.BodyType, p.BodyType)
	setString(&c.Color, p.Color)
	setInt(&c.Power, p.Power)
	setFloat(&c.EngineVolume, p.EngineVolume)
	setString(&c.EuroStandard, p.EuroStandard)
	setString(&c.VIN, p.VIN)
	setString(&c.Condition, p.Condition)
	setBool(&c.Customs, p.Customs)
	setBool(&c.VAT, p.VAT)
	setInt(&c.Owners, p.Owners)
	setFloat(&c.Price, p.Price)
	setString(&c.Currency, p.Currency)
	setBool(&c.Negotiable, p.Negotiable)
	setString(&c.City, p.City)
	setString(&c.Description, p.Description)
	if p.Photos != nil {
		c.Photos = p.Photos
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
