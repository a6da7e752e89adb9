package storage

// NewWithDB builds a Storage on top of any DB, such as a pgxmock pool.
func NewWithDB(db DB) Storage {
	return &pgStorage{db: db}
}
