package restblog

import "time"

// CacheEntry is one cached response body as stored in MongoDB.
type CacheEntry struct {
	PK        string   `json:"pk" bson:"_id" restblog:"id"`
	Data      []byte   `json:"data" bson:"data"`
	TTL       int64    `json:"ttl" bson:"ttl"`
	CreatedAt int64    `json:"createdAt" bson:"createdAt"`
	Tags      []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

func (c CacheEntry) GetCollectionName() string {
	return "cache_entries"
}

// CacheGeneration counts how many times a tag has been invalidated.
type CacheGeneration struct {
	Tag        string `json:"tag" bson:"_id" restblog:"id"`
	Generation int64  `json:"generation" bson:"generation"`
}

func (g CacheGeneration) GetCollectionName() string {
	return "cache_generations"
}

const (
	CachePartitionPrefix      = "CACHE#"
	TagPartitionPrefix        = "TAG#"
	GenerationPartitionPrefix = "GEN#"
)

func (e *CacheEntry) IsExpired() bool {
	return time.Now().Unix() > e.TTL
}
