package model

type UploadResponse struct {
	URL string `json:"url"`
}

type ReverseGeocodeResponse struct {
	City string `json:"city"`
}
