package catalog

const SchemaVersion = 1

const schemaSQL = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

-- Catalogued mesh assets
CREATE TABLE IF NOT EXISTS assets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT UNIQUE NOT NULL,
    content_hash TEXT,
    format TEXT,
    file_size INTEGER DEFAULT 0,
    vertex_count INTEGER DEFAULT 0,
    face_count INTEGER DEFAULT 0,
    min_x REAL DEFAULT 0, min_y REAL DEFAULT 0, min_z REAL DEFAULT 0,
    max_x REAL DEFAULT 0, max_y REAL DEFAULT 0, max_z REAL DEFAULT 0,
    watertight INTEGER DEFAULT 0,
    status TEXT DEFAULT 'pending',
    error_message TEXT,
    indexed_at DATETIME,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assets_path ON assets(path);
CREATE INDEX IF NOT EXISTS idx_assets_status ON assets(status);
CREATE INDEX IF NOT EXISTS idx_assets_format ON assets(format);
`

func GetSchema() string {
	return schemaSQL
}

func GetSchemaVersion() int {
	return SchemaVersion
}
