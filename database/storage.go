package database

// Storage abstracts the persistence backend handed around the app
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	GetDB() interface{}
}
