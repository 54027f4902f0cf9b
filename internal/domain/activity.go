package domain

import "time"

// ItemKind distingue posts de comments en los dumps JSONL
type ItemKind string

const (
	ItemPost    ItemKind = "post"
	ItemComment ItemKind = "comment"
)

// ActivityItem es un registro importado de un export JSONL
type ActivityItem struct {
	Author    string
	Subreddit string
	Kind      ItemKind
	CreatedAt time.Time
}

// DateCount es una entrada de calendario de actividad (día → cantidad)
type DateCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// BucketCount es una entrada de heatmap (hora del día o día de la semana)
type BucketCount struct {
	Bucket int `json:"bucket"` // 0-23 para horas, 0-6 para días (domingo = 0)
	Count  int `json:"count"`
}
