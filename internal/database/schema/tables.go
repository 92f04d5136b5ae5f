package schema

// Tables returns the target schemas for every application table. Declarations
// are restricted to types and defaults valid in both SQLite and Postgres.
// Adding a column here is the whole migration story: the reconciler appends it
// on the next start, with the default backfilling historical rows.
func Tables() []Table {
	return []Table{
		{
			Name: "products",
			Columns: []Column{
				{Name: "title", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "description", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "price", Declaration: "REAL NOT NULL DEFAULT 0"},
				{Name: "image_key", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "thc", Declaration: "REAL NOT NULL DEFAULT 0"},
				{Name: "cbd", Declaration: "REAL NOT NULL DEFAULT 0"},
				{Name: "effects", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "genetics", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "is_visible", Declaration: "INTEGER NOT NULL DEFAULT 1"},
				{Name: "created_at", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "updated_at", Declaration: "TEXT NOT NULL DEFAULT ''"},
			},
		},
		{
			Name: "users",
			Columns: []Column{
				{Name: "email", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "name", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "password_hash", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "role", Declaration: "TEXT NOT NULL DEFAULT 'customer'"},
				{Name: "status", Declaration: "TEXT NOT NULL DEFAULT 'pending'"},
				{Name: "created_at", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "approved_at", Declaration: "TEXT"},
			},
		},
		{
			Name: "messages",
			Columns: []Column{
				{Name: "user_id", Declaration: "INTEGER"},
				{Name: "subject", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "body", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "kind", Declaration: "TEXT NOT NULL DEFAULT 'direct'"},
				{Name: "status", Declaration: "TEXT NOT NULL DEFAULT 'pending'"},
				{Name: "origin_id", Declaration: "INTEGER"},
				{Name: "is_read", Declaration: "INTEGER NOT NULL DEFAULT 0"},
				{Name: "created_at", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "sent_at", Declaration: "TEXT"},
			},
		},
		{
			Name: "prescriptions",
			Columns: []Column{
				{Name: "user_id", Declaration: "INTEGER NOT NULL DEFAULT 0"},
				{Name: "patient_name_enc", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "date_of_birth_enc", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "insurance_enc", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "medications_json", Declaration: "TEXT NOT NULL DEFAULT '[]'"},
				{Name: "status", Declaration: "TEXT NOT NULL DEFAULT 'submitted'"},
				{Name: "pickup_date", Declaration: "TEXT"},
				{Name: "created_at", Declaration: "TEXT NOT NULL DEFAULT ''"},
				{Name: "printed_at", Declaration: "TEXT"},
			},
		},
	}
}
