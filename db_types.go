package restblog

// Document is implemented by every type stored through MongoRepository.
type Document interface {
	GetCollectionName() string
}
