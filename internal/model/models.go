package model

// All lists every persisted type for schema migration.
func All() []interface{} {
	return []interface{}{&Note{}, &StudyMaterial{}, &Profile{}}
}
