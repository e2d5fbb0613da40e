package domain

var Tables = []interface{}{
	// Catalog
	&Category{},
	&Product{},
	&Hero{},
	&Review{},
	// System
	&User{},
}

// MediaOwner is implemented by entities that own uploaded assets.
type MediaOwner interface {
	MediaURLs() []string
}
