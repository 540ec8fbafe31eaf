package novaposhta

import (
	"encoding/json"
	"strings"
)

// Called methods of the Address model.
const (
	ModelAddress       = "Address"
	MethodGetAreas     = "getAreas"
	MethodGetCities    = "getCities"
	MethodGetWarehouse = "getWarehouses"
)

// request is the body of every API call.
type request struct {
	APIKey           string            `json:"apiKey"`
	ModelName        string            `json:"modelName"`
	CalledMethod     string            `json:"calledMethod"`
	MethodProperties map[string]string `json:"methodProperties"`
}

// envelope wraps every API response.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Errors     []string        `json:"errors"`
	Warnings   []string        `json:"warnings"`
	ErrorCodes []string        `json:"errorCodes"`
}

// Area is a region (oblast).
type Area struct {
	Ref         string `json:"Ref"`
	Description string `json:"Description"`
	AreasCenter string `json:"AreasCenter,omitempty"`
}

// City is a settlement served by the carrier.
type City struct {
	Ref           string `json:"Ref"`
	Description   string `json:"Description"`
	DescriptionRu string `json:"DescriptionRu,omitempty"`
	Area          string `json:"Area,omitempty"`
}

// Warehouse is a branch or parcel locker in a city.
type Warehouse struct {
	Ref             string `json:"Ref"`
	Description     string `json:"Description"`
	ShortAddress    string `json:"ShortAddress,omitempty"`
	Number          string `json:"Number,omitempty"`
	CityRef         string `json:"CityRef,omitempty"`
	TypeOfWarehouse string `json:"TypeOfWarehouse,omitempty"`
	PlaceMaxWeight  string `json:"PlaceMaxWeightAllowed,omitempty"`
}

// APIError is returned when the API answers with success=false.
type APIError struct {
	Method     string
	Errors     []string
	ErrorCodes []string
}

// Error implements the error interface.
func (e APIError) Error() string {
	msg := strings.Join(e.Errors, "; ")
	if msg == "" {
		msg = "request was not successful"
	}
	return "novaposhta " + e.Method + ": " + msg
}
