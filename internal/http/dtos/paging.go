package dtos

type APIPagingDto struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Sort      string `json:"sort"`
	Direction string `json:"direction"`
}

type PagingInfo struct {
	TotalCount  int64 `json:"total_count"`
	HasNextPage bool  `json:"has_next_page"`
	Page        int   `json:"page"`
	Count       int   `json:"count"`
}
