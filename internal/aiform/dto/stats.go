package dto

type TotalSubmissions struct {
	TotalSubmissions int64 `json:"totalSubmissions"`
}

type AverageTime struct {
	AverageTime string `json:"averageTime"`
}
