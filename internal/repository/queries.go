package repository

const (
	insertSubmissionSQL = `
		INSERT INTO game_submissions (name, submitted_at)
		VALUES ($1, NOW())
		RETURNING id, name, submitted_at`

	nameCountsSQL = `
		SELECT name, COUNT(*) AS count
		FROM game_submissions
		GROUP BY name
		ORDER BY count DESC, name ASC`
)
