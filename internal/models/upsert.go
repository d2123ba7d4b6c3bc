package models

// UpsertResult counts the outcome of a bulk upsert
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

// Add folds another result into r
func (r *UpsertResult) Add(other UpsertResult) {
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Failed += other.Failed
}

// Written returns the number of records that were persisted
func (r UpsertResult) Written() int {
	return r.Inserted + r.Updated
}
