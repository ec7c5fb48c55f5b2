package queries

const (
	QueryCreateUser = `
		INSERT INTO users (username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	QueryGetUserByID = `
		SELECT id, username, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1;
	`
	QueryGetUserByUsername = `
		SELECT id, username, password_hash, created_at, updated_at
		FROM users
		WHERE username = $1;
	`
	QueryExistsUserByUsername = `SELECT 1 FROM users WHERE username = $1;`
)
